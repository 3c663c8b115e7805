package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/config"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/ledlink-core/internal/output"
	"github.com/nerrad567/ledlink-core/internal/wireless"
)

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(configEnvVar, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidDriver verifies config validation stops startup.
func TestRun_InvalidDriver(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output:
  driver: gpio
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(configEnvVar, configPath)

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "output.driver") {
		t.Fatalf("run() error = %v, want output.driver validation error", err)
	}
}

// TestRun_ServesAndShutsDown starts the full application with the memory
// driver and a static signal source, exercises /led and /status, then cancels.
func TestRun_ServesAndShutsDown(t *testing.T) {
	port := freePort(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
device:
  id: test-node
api:
  host: 127.0.0.1
  port: ` + strconv.Itoa(port) + `
output:
  driver: memory
  initial_state: off
wireless:
  source: static
  static_rssi: -64
logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(configEnvVar, configPath)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	base := "http://127.0.0.1:" + strconv.Itoa(port)
	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < 50; i++ {
		resp, err = http.Get(base + "/led?state=on")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "LED turned ON" {
		t.Errorf("GET /led body = %q", body)
	}

	resp, err = http.Get(base + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"rssi":-64`) || !strings.Contains(string(body), `"state":"ON"`) {
		t.Errorf("GET /status body = %s", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v, want clean shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("env set to existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.yaml")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(configEnvVar, path)

		got, err := getConfigPath()
		if err != nil || got != path {
			t.Errorf("getConfigPath() = %q, %v; want %q", got, err, path)
		}
	})

	t.Run("env set to missing file", func(t *testing.T) {
		t.Setenv(configEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
		if _, err := getConfigPath(); err == nil {
			t.Error("getConfigPath() should fail for a missing explicit file")
		}
	})

	t.Run("no env and no default file", func(t *testing.T) {
		t.Setenv(configEnvVar, "")
		t.Chdir(t.TempDir())

		got, err := getConfigPath()
		if err != nil || got != "" {
			t.Errorf("getConfigPath() = %q, %v; want defaults", got, err)
		}
	})
}

func TestNewOutputDriver(t *testing.T) {
	cfg := &config.Config{Output: config.OutputConfig{Driver: config.OutputDriverMemory}}
	d, err := newOutputDriver(cfg, nil, nil)
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := d.(*output.MemoryDriver); !ok {
		t.Errorf("driver = %T, want *output.MemoryDriver", d)
	}

	for _, name := range []string{config.OutputDriverSerial, config.OutputDriverMQTT, "gpio"} {
		cfg.Output.Driver = name
		if _, err := newOutputDriver(cfg, nil, nil); err == nil {
			t.Errorf("driver %q without its transport should fail", name)
		}
	}
}

func TestNewWirelessSource(t *testing.T) {
	cfg := &config.Config{Wireless: config.WirelessConfig{
		Source:     config.WirelessSourceStatic,
		StaticRSSI: -70,
	}}
	src, err := newWirelessSource(cfg, nil, nil)
	if err != nil {
		t.Fatalf("static source: %v", err)
	}
	if rssi, _ := src.RSSI(context.Background()); rssi != -70 {
		t.Errorf("static RSSI = %d, want -70", rssi)
	}

	cfg.Wireless = config.WirelessConfig{Source: config.WirelessSourceProc, ProcPath: "/proc/net/wireless", Interface: "wlan0"}
	src, err = newWirelessSource(cfg, nil, nil)
	if err != nil {
		t.Fatalf("procfs source: %v", err)
	}
	if p, ok := src.(wireless.ProcNet); !ok || p.Interface != "wlan0" {
		t.Errorf("source = %#v", src)
	}

	for _, name := range []string{config.WirelessSourceSerial, config.WirelessSourceMQTT, "bluetooth"} {
		cfg.Wireless.Source = name
		if _, err := newWirelessSource(cfg, nil, nil); err == nil {
			t.Errorf("source %q without its transport should fail", name)
		}
	}
}

type recordingUnsubscriber struct {
	topics []string
	err    error
}

func (u *recordingUnsubscriber) Unsubscribe(topic string) error {
	u.topics = append(u.topics, topic)
	return u.err
}

func TestReleaseSubscription(t *testing.T) {
	for _, err := range []error{nil, mqtt.ErrNotConnected, mqtt.ErrUnsubscribeFailed} {
		u := &recordingUnsubscriber{err: err}
		releaseSubscription(u, "ledlink/dev/telemetry/rssi", logging.Discard())

		if len(u.topics) != 1 || u.topics[0] != "ledlink/dev/telemetry/rssi" {
			t.Errorf("err=%v: unsubscribed %v, want the RSSI topic once", err, u.topics)
		}
	}
}

type recordingPublisher struct {
	topics   []string
	payloads []string
}

func (p *recordingPublisher) PublishRetained(topic string, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func TestLEDStatePublisher(t *testing.T) {
	p := &recordingPublisher{}
	hook := ledStatePublisher(p, "ledlink/dev/state/led", logging.Discard())

	hook(output.On)
	hook(output.Off)

	if len(p.payloads) != 2 || p.payloads[0] != "ON" || p.payloads[1] != "OFF" {
		t.Errorf("payloads = %q, want [ON OFF]", p.payloads)
	}
	for _, topic := range p.topics {
		if topic != "ledlink/dev/state/led" {
			t.Errorf("published to %q, want the LED state topic", topic)
		}
	}
}
