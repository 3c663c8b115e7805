// Package requestlog keeps a bounded, in-memory history of inbound HTTP requests.
//
// Every request is recorded before it is dispatched, whatever endpoint it
// targets. The history is a fixed-capacity ring: once full, each new record
// overwrites the oldest one. A separate counter tracks every request ever
// seen, so callers can tell how many records have been evicted.
//
// # Memory
//
// Slots are allocated once in New. Paths and user-agent strings are truncated
// to configured maximums and copied, so a record never pins a large request
// header in memory.
//
// # Counter width
//
// The total is a uint32, matching the 32-bit counter of the firmware this
// service mirrors. It saturates at math.MaxUint32 instead of wrapping, so it
// never decreases.
//
// Thread Safety: Record and Recent are safe for concurrent use. A write
// (slot, cursor and counter) is one critical section, so a reader never
// observes a torn record.
package requestlog
