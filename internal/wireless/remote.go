package wireless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/serial"
)

// DefaultMaxAge is how long a reported reading stays valid.
const DefaultMaxAge = 2 * time.Minute

// MQTTSource holds the last RSSI the board published on its telemetry topic.
//
// Register Handle as the MQTT message handler:
//
//	client.Subscribe(client.Topics().RSSI(), 1, src.Handle)
type MQTTSource struct {
	maxAge time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	rssi     int
	received time.Time
}

// NewMQTTSource creates a source whose readings expire after maxAge.
func NewMQTTSource(maxAge time.Duration) *MQTTSource {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &MQTTSource{maxAge: maxAge, now: time.Now}
}

type rssiPayload struct {
	RSSI *int `json:"rssi"`
}

// Handle accepts a payload of either a bare integer ("-61") or {"rssi":-61}.
func (s *MQTTSource) Handle(_ string, payload []byte) error {
	rssi, err := decodeRSSI(payload)
	if err != nil {
		return err
	}
	if err := validate(rssi); err != nil {
		return err
	}

	s.mu.Lock()
	s.rssi = rssi
	s.received = s.now()
	s.mu.Unlock()
	return nil
}

func decodeRSSI(payload []byte) (int, error) {
	payload = bytes.TrimSpace(payload)
	if n, err := strconv.Atoi(string(payload)); err == nil {
		return n, nil
	}
	var p rssiPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RSSI == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPayload, payload)
	}
	return *p.RSSI, nil
}

// RSSI returns the cached reading.
func (s *MQTTSource) RSSI(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.received.IsZero() {
		return 0, ErrNoReading
	}
	if age := s.now().Sub(s.received); age > s.maxAge {
		return 0, fmt.Errorf("%w: last report %s ago", ErrStale, age.Truncate(time.Second))
	}
	return s.rssi, nil
}

// Commander sends a JSON command line and returns the board's reply.
// *serial.Link satisfies it.
type Commander interface {
	Command(ctx context.Context, cmd any) (serial.Reply, error)
}

// SerialSource asks the board for its RSSI with {"get":"rssi"}.
type SerialSource struct {
	link Commander
}

// NewSerialSource creates a source on link.
func NewSerialSource(link Commander) *SerialSource {
	return &SerialSource{link: link}
}

// RSSI sends the query and reads the "rssi" field of the reply.
func (s *SerialSource) RSSI(ctx context.Context) (int, error) {
	reply, err := s.link.Command(ctx, map[string]string{"get": "rssi"})
	if err != nil {
		return 0, err
	}
	// encoding/json decodes numbers into float64.
	v, ok := reply["rssi"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: reply %v", ErrBadPayload, map[string]any(reply))
	}
	return int(v), nil
}
