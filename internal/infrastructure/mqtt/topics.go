package mqtt

// Topic prefix for everything this service publishes or subscribes to.
// Each node namespaces its topics by device ID so several boards can share a broker:
//
//	ledlink/{device_id}/{leaf}
const TopicPrefix = "ledlink"

// Topics builds LedLink MQTT topics for one device.
//
//	topics := mqtt.Topics{DeviceID: "ledlink-001"}
//	topics.LEDCommand() // "ledlink/ledlink-001/command/led"
type Topics struct {
	DeviceID string
}

func (t Topics) build(leaf string) string {
	return TopicPrefix + "/" + t.DeviceID + "/" + leaf
}

// LEDCommand is where output commands for the board are published.
func (t Topics) LEDCommand() string {
	return t.build("command/led")
}

// LEDState carries the state this service last applied, retained, as the
// bare string ON or OFF. It is published on every change, whatever the driver.
func (t Topics) LEDState() string {
	return t.build("state/led")
}

// RSSI is where the board reports its WiFi signal strength in dBm.
func (t Topics) RSSI() string {
	return t.build("telemetry/rssi")
}

// Status carries the retained status view published by this service.
func (t Topics) Status() string {
	return t.build("status")
}

// Availability carries the online/offline marker, including the LWT.
func (t Topics) Availability() string {
	return t.build("availability")
}
