// Package telemetry exports periodic status samples to InfluxDB.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/status"
	"github.com/nerrad567/ledlink-core/internal/wireless"
)

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = time.Minute

// StatusWriter queues a status point. *influxdb.Client satisfies it.
type StatusWriter interface {
	WriteStatus(p influxdb.StatusPoint) error
}

// Snapshotter provides the status view. *status.Aggregator satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) status.View
}

// Counter provides the total request count. *requestlog.Log satisfies it.
type Counter interface {
	Total() uint32
}

// Config holds the exporter's collaborators.
type Config struct {
	DeviceID string
	Interval time.Duration
	Writer   StatusWriter
	Status   Snapshotter
	Counter  Counter
	Logger   *logging.Logger
}

// Exporter writes one sample per interval.
type Exporter struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates an Exporter. Call Start to begin exporting.
func New(cfg Config) *Exporter {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{
		cfg:    cfg,
		logger: logger.With("component", "telemetry"),
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Start begins exporting in the background.
func (e *Exporter) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.loop(ctx)
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (e *Exporter) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
	})
}

// ExportNow writes the current sample. A failed RSSI read is left out of the
// point rather than written as the sentinel.
func (e *Exporter) ExportNow(ctx context.Context) error {
	view := e.cfg.Status.Snapshot(ctx)
	return e.cfg.Writer.WriteStatus(influxdb.StatusPoint{
		DeviceID:      e.cfg.DeviceID,
		LEDOn:         view.LED.State.IsOn(),
		RSSI:          view.WiFi.RSSI,
		HasRSSI:       view.WiFi.RSSI != wireless.SentinelRSSI,
		UptimeSeconds: view.System.Uptime,
		TotalRequests: e.cfg.Counter.Total(),
		Time:          e.now(),
	})
}

func (e *Exporter) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			if err := e.ExportNow(ctx); err != nil {
				e.logger.Warn("failed to export status sample", "error", err)
			}
		}
	}
}
