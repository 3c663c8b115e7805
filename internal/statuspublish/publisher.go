// Package statuspublish periodically publishes the device status view to MQTT
// as a retained message, so dashboards see the latest state on subscribe.
package statuspublish

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ledlink-core/internal/status"
)

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = 30 * time.Second

// RetainedPublisher publishes retained messages. *mqtt.Client satisfies it.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
	IsConnected() bool
}

// Snapshotter provides the status view. *status.Aggregator satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) status.View
}

// Counter provides the total request count. *requestlog.Log satisfies it.
type Counter interface {
	Total() uint32
}

// Message is the retained status payload.
type Message struct {
	DeviceID      string      `json:"device_id"`
	Status        status.View `json:"status"`
	TotalRequests uint32      `json:"total_requests"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Config holds the publisher's collaborators.
type Config struct {
	DeviceID  string
	Topic     string
	Interval  time.Duration
	Publisher RetainedPublisher
	Status    Snapshotter
	Counter   Counter
	Logger    *logging.Logger
}

// Publisher runs the publish loop.
type Publisher struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Publisher. Call Start to begin publishing.
func New(cfg Config) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Publisher{
		cfg:    cfg,
		logger: logger.With("component", "statuspublish"),
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Start publishes once immediately and then every interval until ctx is
// cancelled or Stop is called.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// PublishNow publishes the current status. It is a no-op while the
// publisher is disconnected; the next tick after reconnect catches up.
func (p *Publisher) PublishNow(ctx context.Context) error {
	if !p.cfg.Publisher.IsConnected() {
		p.logger.Debug("skipping status publish, MQTT disconnected")
		return nil
	}

	msg := Message{
		DeviceID:      p.cfg.DeviceID,
		Status:        p.cfg.Status.Snapshot(ctx),
		TotalRequests: p.cfg.Counter.Total(),
		Timestamp:     p.now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.cfg.Publisher.PublishRetained(p.cfg.Topic, payload)
}

func (p *Publisher) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	if err := p.PublishNow(ctx); err != nil {
		p.logger.Warn("failed to publish initial status", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			if err := p.PublishNow(ctx); err != nil {
				p.logger.Warn("failed to publish status", "error", err)
			}
		}
	}
}
