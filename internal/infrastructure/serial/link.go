package serial

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	goserial "go.bug.st/serial"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/config"
)

// defaultReadTimeout bounds how long Command waits for a reply line.
const defaultReadTimeout = 2 * time.Second

// maxReplySize caps one reply line; the board's replies are a few dozen bytes.
const maxReplySize = 1024

// Port is the subset of go.bug.st/serial.Port the link needs.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Reply is a decoded board response.
type Reply map[string]any

// Link is a command/response channel to the board.
//
// Thread Safety: one command is in flight at a time. Callers waiting for the
// link give up when their ctx ends.
type Link struct {
	port    Port
	buf     []byte
	timeout time.Duration

	// sem holds one token while a goroutine owns the port.
	sem    chan struct{}
	closed atomic.Bool
}

// Open opens the configured serial port.
//
// Parameters:
//   - cfg: Serial configuration (port name, baud rate, timeout)
//
// Returns:
//   - *Link: Ready link
//   - error: ErrOpenFailed wrapping the driver error
func Open(cfg config.SerialConfig) (*Link, error) {
	mode := &goserial.Mode{BaudRate: cfg.Baud}
	p, err := goserial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Port, err)
	}
	return NewLink(p, time.Duration(cfg.Timeout)*time.Millisecond), nil
}

// NewLink wraps an already-open port. A non-positive timeout selects the default.
func NewLink(p Port, timeout time.Duration) *Link {
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	return &Link{
		port:    p,
		buf:     make([]byte, 128),
		timeout: timeout,
		sem:     make(chan struct{}, 1),
	}
}

// Command sends one JSON command and waits for the board's reply line.
//
// The wait ends at the link timeout or the ctx deadline, whichever comes
// first; a silent board yields ErrNoReply. A reply carrying an "error"
// field is returned as ErrBoard.
func (l *Link) Command(ctx context.Context, cmd any) (Reply, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}
	payload = append(payload, '\n')

	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()

	if l.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("serial command: %w", err)
	}

	deadline := time.Now().Add(l.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// Drop any late reply to an earlier command that timed out.
	if err := l.port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("resetting input buffer: %w", err)
	}

	if _, err := l.port.Write(payload); err != nil {
		return nil, fmt.Errorf("writing command: %w", err)
	}

	line, err := l.readLine(ctx, deadline)
	if err != nil {
		return nil, err
	}

	var reply Reply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadReply, line)
	}
	if msg, ok := reply["error"]; ok {
		return reply, fmt.Errorf("%w: %v", ErrBoard, msg)
	}
	return reply, nil
}

// readLine reads up to the first newline. go.bug.st/serial reports a read
// timeout as (0, nil), so the first empty read ends the wait. Each read's
// timeout is capped at the time left before deadline.
func (l *Link) readLine(ctx context.Context, deadline time.Time) ([]byte, error) {
	var line []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoReply, err)
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrNoReply
		}
		if err := l.port.SetReadTimeout(remaining); err != nil {
			return nil, fmt.Errorf("setting read timeout: %w", err)
		}

		n, err := l.port.Read(l.buf)
		if n > 0 {
			line = append(line, l.buf[:n]...)
			if i := bytes.IndexByte(line, '\n'); i >= 0 {
				return line[:i], nil
			}
			if len(line) > maxReplySize {
				return nil, fmt.Errorf("%w: no newline in %d bytes", ErrBadReply, len(line))
			}
			continue
		}
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return nil, ErrNoReply
		default:
			return nil, fmt.Errorf("reading reply: %w", err)
		}
	}
}

// acquire takes the port or fails when ctx ends first.
func (l *Link) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("serial command: waiting for link: %w", ctx.Err())
	}
}

func (l *Link) release() {
	<-l.sem
}

// Close releases the serial port. Safe to call more than once.
// It waits for an in-flight command, which is bounded by the link timeout.
func (l *Link) Close() error {
	l.sem <- struct{}{}
	defer l.release()

	if l.closed.Load() {
		return nil
	}
	l.closed.Store(true)
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("closing serial port: %w", err)
	}
	return nil
}

// HealthCheck verifies the link is open.
func (l *Link) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("serial health check: %w", ctx.Err())
	default:
	}

	if l.closed.Load() {
		return ErrClosed
	}
	return nil
}
