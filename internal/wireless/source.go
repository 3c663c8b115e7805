package wireless

import (
	"context"
	"fmt"
)

// Valid RSSI range in dBm.
const (
	MinRSSI = -120
	MaxRSSI = 0
)

// SentinelRSSI is reported when the signal strength cannot be read.
// It lies below MinRSSI so consumers can tell it apart from a weak signal.
const SentinelRSSI = -127

// Source provides the current signal strength in dBm.
type Source interface {
	RSSI(ctx context.Context) (int, error)
}

// Read returns the current RSSI from src. When the read fails or the value is
// outside MinRSSI..MaxRSSI it returns SentinelRSSI together with the error.
func Read(ctx context.Context, src Source) (int, error) {
	if src == nil {
		return SentinelRSSI, ErrNoReading
	}
	rssi, err := src.RSSI(ctx)
	if err != nil {
		return SentinelRSSI, err
	}
	if err := validate(rssi); err != nil {
		return SentinelRSSI, err
	}
	return rssi, nil
}

func validate(rssi int) error {
	if rssi < MinRSSI || rssi > MaxRSSI {
		return fmt.Errorf("%w: %d dBm", ErrOutOfRange, rssi)
	}
	return nil
}

// Static is a fixed reading, for hosts without a wireless interface.
type Static int

// RSSI returns s.
func (s Static) RSSI(context.Context) (int, error) {
	return int(s), nil
}
