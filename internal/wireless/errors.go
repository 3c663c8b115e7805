package wireless

import "errors"

// Domain-specific errors for signal strength reads.
var (
	// ErrNoReading is returned when a source has not received any value yet.
	ErrNoReading = errors.New("wireless: no reading")

	// ErrStale is returned when the cached reading is older than the source allows.
	ErrStale = errors.New("wireless: reading is stale")

	// ErrInterfaceNotFound is returned when the interface is missing from /proc/net/wireless.
	ErrInterfaceNotFound = errors.New("wireless: interface not found")

	// ErrOutOfRange is returned for a value outside MinRSSI..MaxRSSI.
	ErrOutOfRange = errors.New("wireless: rssi out of range")

	// ErrBadPayload is returned for a telemetry message that carries no RSSI.
	ErrBadPayload = errors.New("wireless: malformed rssi payload")
)
