package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// StatusMeasurement is the measurement name for device status points.
const StatusMeasurement = "ledlink_status"

// StatusPoint is one sample of a device's status view. RSSI is written only
// when HasRSSI is set.
type StatusPoint struct {
	DeviceID      string
	LEDOn         bool
	RSSI          int
	HasRSSI       bool
	UptimeSeconds int64
	TotalRequests uint32
	Time          time.Time
}

// NewStatusPoint converts a StatusPoint to a line-protocol point tagged by device.
func NewStatusPoint(s StatusPoint) *write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fields := map[string]any{
		"led_on":         s.LEDOn,
		"uptime_seconds": s.UptimeSeconds,
		"total_requests": int64(s.TotalRequests),
	}
	if s.HasRSSI {
		fields["rssi"] = int64(s.RSSI)
	}
	return write.NewPoint(
		StatusMeasurement,
		map[string]string{
			"device_id": s.DeviceID,
		},
		fields,
		ts,
	)
}

// WriteStatus queues a status sample. The write is non-blocking; failures are
// reported through the SetOnError callback.
func (c *Client) WriteStatus(s StatusPoint) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(NewStatusPoint(s))
	return nil
}

// WritePoint queues a custom point with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
	return nil
}
