package output

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/serial"
)

// MemoryDriver accepts every state without touching hardware.
type MemoryDriver struct {
	mu    sync.Mutex
	last  State
	calls int
}

// NewMemoryDriver returns a MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{}
}

// Set records s.
func (d *MemoryDriver) Set(_ context.Context, s State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = s
	d.calls++
	return nil
}

// Last returns the most recent state set and how many times Set was called.
func (d *MemoryDriver) Last() (State, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.calls
}

// CommandPublisher publishes a non-retained command message.
// *mqtt.Client satisfies it.
type CommandPublisher interface {
	PublishCommand(topic string, payload []byte) error
}

// MQTTDriver publishes {"state":"on"|"off"} to the board's command topic.
type MQTTDriver struct {
	pub   CommandPublisher
	topic string
}

// NewMQTTDriver creates a driver publishing to topic.
func NewMQTTDriver(pub CommandPublisher, topic string) *MQTTDriver {
	return &MQTTDriver{pub: pub, topic: topic}
}

type mqttCommand struct {
	State string `json:"state"`
}

// Set publishes the command. The publish is acknowledged by the broker, not the board.
func (d *MQTTDriver) Set(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(mqttCommand{State: s.Wire()})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}
	if err := d.pub.PublishCommand(d.topic, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", d.topic, err)
	}
	return nil
}

// Commander sends a JSON command line and returns the board's reply.
// *serial.Link satisfies it.
type Commander interface {
	Command(ctx context.Context, cmd any) (serial.Reply, error)
}

// SerialDriver sends {"led":"on"|"off"} over the serial link and checks the echo.
type SerialDriver struct {
	link Commander
}

// NewSerialDriver creates a driver on link.
func NewSerialDriver(link Commander) *SerialDriver {
	return &SerialDriver{link: link}
}

// Set sends the command and waits for the reply. If the reply carries an
// "led" field it must match the requested state.
func (d *SerialDriver) Set(ctx context.Context, s State) error {
	reply, err := d.link.Command(ctx, map[string]string{"led": s.Wire()})
	if err != nil {
		return err
	}
	if got, ok := reply["led"].(string); ok && !strings.EqualFold(got, s.Wire()) {
		return fmt.Errorf("board reports led=%q, want %q", got, s.Wire())
	}
	return nil
}
