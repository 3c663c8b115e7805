// Package status assembles the point-in-time device view served on /status.
package status

import (
	"context"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/output"
	"github.com/nerrad567/ledlink-core/internal/uptime"
	"github.com/nerrad567/ledlink-core/internal/wireless"
)

// DefaultReadTimeout bounds a single signal strength read.
const DefaultReadTimeout = time.Second

// OutputReader exposes the current LED state. *output.Controller satisfies it.
type OutputReader interface {
	State() output.State
}

// View is the /status document. Field names are part of the page contract.
type View struct {
	LED    LEDView    `json:"led"`
	WiFi   WiFiView   `json:"wifi"`
	System SystemView `json:"system"`
}

// LEDView carries the output state ("ON" or "OFF").
type LEDView struct {
	State output.State `json:"state"`
}

// WiFiView carries the raw signal strength and its quality band.
type WiFiView struct {
	RSSI    int     `json:"rssi"`
	Quality Quality `json:"quality"`
}

// SystemView carries whole seconds since process start.
type SystemView struct {
	Uptime int64 `json:"uptime"`
}

// Aggregator reads the LED state, the signal strength and the uptime clock.
// It does not touch the request log.
type Aggregator struct {
	output  OutputReader
	signal  wireless.Source
	clock   uptime.Source
	timeout time.Duration
	logger  *logging.Logger
}

// New creates an Aggregator. A nil logger discards read failures.
func New(out OutputReader, signal wireless.Source, clock uptime.Source, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{
		output:  out,
		signal:  signal,
		clock:   clock,
		timeout: DefaultReadTimeout,
		logger:  logger.With("component", "status"),
	}
}

// Snapshot returns the current view. It always succeeds: a failed signal
// read yields wireless.SentinelRSSI.
func (a *Aggregator) Snapshot(ctx context.Context) View {
	readCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	rssi, err := wireless.Read(readCtx, a.signal)
	if err != nil {
		a.logger.Debug("signal strength unavailable", "error", err)
	}

	return View{
		LED:    LEDView{State: a.output.State()},
		WiFi:   WiFiView{RSSI: rssi, Quality: SignalQuality(rssi)},
		System: SystemView{Uptime: a.clock.Seconds()},
	}
}
