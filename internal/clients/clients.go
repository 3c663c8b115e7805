// Package clients builds the /clients view from the request log.
package clients

import (
	"github.com/nerrad567/ledlink-core/internal/requestlog"
	"github.com/nerrad567/ledlink-core/internal/useragent"
)

// Source yields the total count and the newest-first records in one
// consistent read. *requestlog.Log satisfies it.
type Source interface {
	Snapshot() (uint32, []requestlog.Record)
}

// View is the /clients document. Field names are part of the page contract.
type View struct {
	TotalRequests  uint32  `json:"totalRequests"`
	RecentRequests []Entry `json:"recentRequests"`
}

// Entry is one recent request. Device and browser fields are derived from
// UserAgent when the view is built; UserAgent itself is always kept.
type Entry struct {
	IP            string `json:"ip"`
	Endpoint      string `json:"endpoint"`
	UserAgent     string `json:"userAgent"`
	Uptime        int64  `json:"uptime"`
	DeviceFamily  string `json:"deviceFamily"`
	DeviceIcon    string `json:"deviceIcon"`
	BrowserFamily string `json:"browserFamily"`
}

// Aggregator is a read-only view over the request log.
type Aggregator struct {
	log Source
}

// New creates an Aggregator over log.
func New(log Source) *Aggregator {
	return &Aggregator{log: log}
}

// ListRecent returns the total count and the recent requests, newest first.
// RecentRequests is never nil so it encodes as [].
func (a *Aggregator) ListRecent() View {
	total, records := a.log.Snapshot()

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		device, browser := useragent.Classify(r.UserAgent)
		entries = append(entries, Entry{
			IP:            r.SourceAddress,
			Endpoint:      r.EndpointPath,
			UserAgent:     r.UserAgent,
			Uptime:        r.UptimeSeconds,
			DeviceFamily:  device.Label(),
			DeviceIcon:    device.Icon(),
			BrowserFamily: string(browser),
		})
	}

	return View{TotalRequests: total, RecentRequests: entries}
}
