// Package influxdb provides InfluxDB connectivity for LedLink Core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched status writes, and health monitoring.
//
// InfluxDB is optional. When enabled, the telemetry exporter writes one
// ledlink_status point per interval carrying the LED state, the signal
// strength, uptime and the total request count.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteStatus(influxdb.StatusPoint{DeviceID: "ledlink-001", LEDOn: true, RSSI: -61, HasRSSI: true})
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval); batch
// errors are delivered via SetOnError. Connection and health check errors are
// returned directly.
package influxdb
