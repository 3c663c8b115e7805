package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/config"
)

// offlineClient returns a Client that was never connected.
// It exercises validation and state paths without a broker.
func offlineClient() *Client {
	return &Client{
		cfg:           config.MQTTConfig{QoS: 1},
		topics:        Topics{DeviceID: "dev-1"},
		subscriptions: make(map[string]subscription),
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{DeviceID: "ledlink-001"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"LEDCommand", topics.LEDCommand(), "ledlink/ledlink-001/command/led"},
		{"LEDState", topics.LEDState(), "ledlink/ledlink-001/state/led"},
		{"RSSI", topics.RSSI(), "ledlink/ledlink-001/telemetry/rssi"},
		{"Status", topics.Status(), "ledlink/ledlink-001/status"},
		{"Availability", topics.Availability(), "ledlink/ledlink-001/availability"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 1883}}
	if got := brokerURL(cfg); got != "tcp://broker.local:1883" {
		t.Errorf("brokerURL() = %q", got)
	}

	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://broker.local:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "core-test"},
		Auth:   config.MQTTAuthConfig{Username: "led", Password: "secret"},
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 2,
			MaxDelay:     30,
		},
	}

	opts := buildClientOptions(cfg)

	if opts.ClientID != "core-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "led" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.MaxReconnectInterval != 30*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 30s", opts.MaxReconnectInterval)
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://localhost:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "localhost", Port: 1883}})
	configureLWT(opts, Topics{DeviceID: "dev-1"}, "core-test")

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false")
	}
	if opts.WillTopic != "ledlink/dev-1/availability" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
	if !strings.Contains(string(opts.WillPayload), "unexpected_disconnect") {
		t.Errorf("WillPayload = %s", opts.WillPayload)
	}
}

func TestAvailabilityPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := availabilityPayload("online", "core-1", "", now)

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["status"] != "online" || got["client_id"] != "core-1" {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
	if got["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v", got["timestamp"])
	}
}

func TestPublishValidation(t *testing.T) {
	c := offlineClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "ledlink/x", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "ledlink/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "ledlink/x", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishHelpers_NotConnected(t *testing.T) {
	c := offlineClient()

	if err := c.PublishRetained("ledlink/x", []byte("1")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() error = %v, want ErrNotConnected", err)
	}
	if err := c.PublishCommand("ledlink/x", []byte("1")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishCommand() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := offlineClient()
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v", err)
	}
	if err := c.Subscribe("ledlink/x", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v", err)
	}
	if err := c.Subscribe("ledlink/x", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v", err)
	}
	if err := c.Subscribe("ledlink/x", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(offline) error = %v", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", c.SubscriptionCount())
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) error = %v", err)
	}
}

func TestUnsubscribe_OfflineForgetsTopic(t *testing.T) {
	c := offlineClient()
	topic := c.Topics().RSSI()
	c.subscriptions[topic] = subscription{topic: topic, qos: 1, handler: func(string, []byte) error { return nil }}

	if c.SubscriptionCount() != 1 {
		t.Fatalf("SubscriptionCount() = %d, want 1", c.SubscriptionCount())
	}
	if err := c.Unsubscribe(topic); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe(offline) error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 so reconnect does not restore it", c.SubscriptionCount())
	}
}

// stubToken is a paho token with a fixed outcome.
type stubToken struct {
	done bool
	err  error
}

func (t stubToken) Wait() bool                     { return t.done }
func (t stubToken) WaitTimeout(time.Duration) bool { return t.done }
func (t stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}
func (t stubToken) Error() error { return t.err }

func TestWaitToken(t *testing.T) {
	brokerErr := errors.New("not authorised")

	tests := []struct {
		name    string
		token   stubToken
		wantErr error
	}{
		{"acknowledged", stubToken{done: true}, nil},
		{"rejected", stubToken{done: true, err: brokerErr}, brokerErr},
		{"no acknowledgement", stubToken{done: false}, ErrUnsubscribeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := waitToken(tt.token, ErrUnsubscribeFailed)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("waitToken() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrUnsubscribeFailed) {
				t.Errorf("waitToken() error = %v, want %v wrapped in ErrUnsubscribeFailed", err, tt.wantErr)
			}
		})
	}
}

func TestHealthCheck_Offline(t *testing.T) {
	c := offlineClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("nil IsConnected() = true")
	}
}

// recordingLogger captures log calls.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestDispatch_LogsErrorsAndRecoversPanics(t *testing.T) {
	c := offlineClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { return fmt.Errorf("bad payload") }, "t", nil)
	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)

	var got string
	c.dispatch(func(_ string, p []byte) error {
		got = string(p)
		return nil
	}, "t", []byte("-61"))

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
	if len(logger.errs) != 1 {
		t.Errorf("errs = %v, want one recovered panic", logger.errs)
	}
	if got != "-61" {
		t.Errorf("handler payload = %q", got)
	}
}

func TestCallbacks(t *testing.T) {
	c := offlineClient()
	var disconnectErr error
	c.SetOnDisconnect(func(err error) { disconnectErr = err })

	c.connected = true
	c.handleDisconnect(errors.New("network down"))

	if c.connected {
		t.Error("connected = true after handleDisconnect")
	}
	if disconnectErr == nil || disconnectErr.Error() != "network down" {
		t.Errorf("onDisconnect error = %v", disconnectErr)
	}
}
