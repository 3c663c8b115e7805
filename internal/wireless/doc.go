// Package wireless reads the signal strength (RSSI, dBm) of the link the LED
// board is on.
//
// Sources:
//   - Static returns a configured value
//   - ProcNet parses /proc/net/wireless on the gateway host
//   - MQTTSource caches the value the board reports on its telemetry topic
//   - SerialSource queries the board over the serial link
//
// Read never omits a value: on any failure it returns SentinelRSSI.
package wireless
