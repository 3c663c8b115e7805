// Package mqtt provides MQTT client connectivity for LedLink Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions restored after reconnect
//   - Last Will and Testament (LWT) on the availability topic
//
// # Architecture
//
// MQTT is optional. When enabled it links this service to a LED board that
// is not attached over serial: LED commands go out on the command topic, the
// board reports its WiFi signal strength on the telemetry topic, and the
// status view is published retained for dashboards.
//
//	LedLink Core ↔ MQTT Broker ↔ LED board firmware
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Device.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishCommand(client.Topics().LEDCommand(), []byte(`{"state":"on"}`))
package mqtt
