package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/ledlink-core/internal/output"
	"github.com/nerrad567/ledlink-core/internal/status"
	"github.com/nerrad567/ledlink-core/internal/wireless"
)

type fakeWriter struct {
	mu     sync.Mutex
	points []influxdb.StatusPoint
	err    error
}

func (w *fakeWriter) WriteStatus(p influxdb.StatusPoint) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	return w.err
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

type fixedStatus status.View

func (f fixedStatus) Snapshot(context.Context) status.View { return status.View(f) }

type fixedCounter uint32

func (c fixedCounter) Total() uint32 { return uint32(c) }

func TestExportNow(t *testing.T) {
	w := &fakeWriter{}
	ts := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	e := New(Config{
		DeviceID: "ledlink-001",
		Writer:   w,
		Status: fixedStatus(status.View{
			LED:    status.LEDView{State: output.On},
			WiFi:   status.WiFiView{RSSI: -72},
			System: status.SystemView{Uptime: 600},
		}),
		Counter: fixedCounter(41),
	})
	e.now = func() time.Time { return ts }

	if err := e.ExportNow(context.Background()); err != nil {
		t.Fatalf("ExportNow() error = %v", err)
	}

	want := influxdb.StatusPoint{
		DeviceID:      "ledlink-001",
		LEDOn:         true,
		RSSI:          -72,
		HasRSSI:       true,
		UptimeSeconds: 600,
		TotalRequests: 41,
		Time:          ts,
	}
	if w.count() != 1 || w.points[0] != want {
		t.Errorf("points = %+v, want [%+v]", w.points, want)
	}
}

func TestExportNow_SentinelRSSIIsNotAReading(t *testing.T) {
	w := &fakeWriter{}
	e := New(Config{
		Writer: w,
		Status: fixedStatus(status.View{
			WiFi: status.WiFiView{RSSI: wireless.SentinelRSSI},
		}),
		Counter: fixedCounter(0),
	})

	if err := e.ExportNow(context.Background()); err != nil {
		t.Fatalf("ExportNow() error = %v", err)
	}
	if w.count() != 1 {
		t.Fatalf("exported %d points, want 1", w.count())
	}
	if w.points[0].HasRSSI {
		t.Errorf("HasRSSI = true for sentinel RSSI %d", w.points[0].RSSI)
	}
}

func TestExportNow_WriterError(t *testing.T) {
	w := &fakeWriter{err: influxdb.ErrNotConnected}
	e := New(Config{Writer: w, Status: fixedStatus(status.View{}), Counter: fixedCounter(0)})

	if err := e.ExportNow(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("ExportNow() error = %v, want ErrNotConnected", err)
	}
}

func TestStartStop(t *testing.T) {
	w := &fakeWriter{}
	e := New(Config{
		Interval: 10 * time.Millisecond,
		Writer:   w,
		Status:   fixedStatus(status.View{}),
		Counter:  fixedCounter(0),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for w.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	e.Stop()
	e.Stop()

	if w.count() < 2 {
		t.Fatalf("exported %d samples, want at least 2", w.count())
	}
	after := w.count()
	time.Sleep(30 * time.Millisecond)
	if w.count() != after {
		t.Error("exporter kept running after Stop")
	}
}
