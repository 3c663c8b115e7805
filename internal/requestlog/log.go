package requestlog

import (
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nerrad567/ledlink-core/internal/uptime"
)

// Default sizes, matching the firmware.
const (
	DefaultCapacity           = 10
	DefaultMaxPathLength      = 64
	DefaultMaxUserAgentLength = 128
)

// Record is one logged inbound request. Records are values; once written to a
// slot they are only replaced by wraparound.
type Record struct {
	SourceAddress string
	EndpointPath  string
	UserAgent     string
	UptimeSeconds int64
}

// Options configures a Log. Zero values select the defaults.
type Options struct {
	Capacity           int
	MaxPathLength      int
	MaxUserAgentLength int

	// Clock stamps each record. Defaults to a clock started in New.
	Clock uptime.Source
}

// Log is a fixed-capacity ring of recent requests plus a total counter.
type Log struct {
	mu     sync.RWMutex
	slots  []Record
	cursor int // next slot to overwrite
	filled int // slots holding a record, at most len(slots)
	total  uint32

	maxPath int
	maxUA   int
	clock   uptime.Source
}

// New creates an empty Log with pre-allocated storage.
func New(opts Options) *Log {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxPathLength <= 0 {
		opts.MaxPathLength = DefaultMaxPathLength
	}
	if opts.MaxUserAgentLength <= 0 {
		opts.MaxUserAgentLength = DefaultMaxUserAgentLength
	}
	if opts.Clock == nil {
		opts.Clock = uptime.NewClock()
	}

	return &Log{
		slots:   make([]Record, opts.Capacity),
		maxPath: opts.MaxPathLength,
		maxUA:   opts.MaxUserAgentLength,
		clock:   opts.Clock,
	}
}

// Record appends a request to the log, evicting the oldest record when full.
//
// The path and user agent are silently truncated to their maximum lengths.
// Record never fails and never blocks on I/O.
func (l *Log) Record(sourceAddress, endpointPath, userAgent string) {
	rec := Record{
		SourceAddress: strings.Clone(sourceAddress),
		EndpointPath:  truncate(endpointPath, l.maxPath),
		UserAgent:     truncate(userAgent, l.maxUA),
		UptimeSeconds: l.clock.Seconds(),
	}

	l.mu.Lock()
	l.slots[l.cursor] = rec
	l.cursor = (l.cursor + 1) % len(l.slots)
	if l.filled < len(l.slots) {
		l.filled++
	}
	if l.total < math.MaxUint32 {
		l.total++
	}
	l.mu.Unlock()
}

// Recent returns the live records newest-first.
// The returned slice is a copy and may be retained by the caller.
func (l *Log) Recent() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.recentLocked()
}

// Snapshot returns the total counter and the newest-first records read under
// one lock, so the two always agree.
func (l *Log) Snapshot() (uint32, []Record) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, l.recentLocked()
}

// recentLocked walks backward from the slot before the cursor.
// Callers must hold l.mu.
func (l *Log) recentLocked() []Record {
	n := len(l.slots)
	out := make([]Record, 0, l.filled)
	idx := l.cursor
	for range l.filled {
		idx = (idx - 1 + n) % n
		out = append(out, l.slots[idx])
	}
	return out
}

// Total returns the number of requests ever recorded, saturating at math.MaxUint32.
func (l *Log) Total() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filled
}

// Capacity returns the fixed number of slots.
func (l *Log) Capacity() int {
	return len(l.slots)
}

// truncate cuts s to at most limit bytes, backing off to a rune boundary so the
// kept prefix is valid UTF-8 whenever s was.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return strings.Clone(s)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.Clone(s[:cut])
}
