package serial

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakePort answers each written line with the next canned reply.
type fakePort struct {
	mu       sync.Mutex
	written  bytes.Buffer
	replies  []string
	pending  *strings.Reader
	closed   bool
	resets   int
	lastTO   time.Duration
	writeErr error
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written.Write(b)
	if len(p.replies) > 0 {
		p.pending = strings.NewReader(p.replies[0])
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil || p.pending.Len() == 0 {
		// Mirror go.bug.st/serial: a timeout is a zero-byte read.
		return 0, nil
	}
	return p.pending.Read(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.lastTO = t
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.resets++
	return nil
}

func TestCommand_RoundTrip(t *testing.T) {
	port := &fakePort{replies: []string{`{"led":"on","ok":true}` + "\n"}}
	link := NewLink(port, 500*time.Millisecond)

	reply, err := link.Command(context.Background(), map[string]string{"led": "on"})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if reply["led"] != "on" {
		t.Errorf("reply[led] = %v, want on", reply["led"])
	}
	if got := port.written.String(); got != `{"led":"on"}`+"\n" {
		t.Errorf("written = %q", got)
	}
	if port.lastTO <= 0 || port.lastTO > 500*time.Millisecond {
		t.Errorf("read timeout = %v, want (0, 500ms]", port.lastTO)
	}
	if port.resets != 1 {
		t.Errorf("ResetInputBuffer calls = %d, want 1", port.resets)
	}
}

func TestCommand_NoReply(t *testing.T) {
	link := NewLink(&fakePort{}, 0)

	_, err := link.Command(context.Background(), map[string]string{"get": "rssi"})
	if !errors.Is(err, ErrNoReply) {
		t.Errorf("Command() error = %v, want ErrNoReply", err)
	}
}

func TestCommand_BadReply(t *testing.T) {
	link := NewLink(&fakePort{replies: []string{"garbage\n"}}, 0)

	_, err := link.Command(context.Background(), map[string]string{"get": "rssi"})
	if !errors.Is(err, ErrBadReply) {
		t.Errorf("Command() error = %v, want ErrBadReply", err)
	}
}

func TestCommand_BoardError(t *testing.T) {
	link := NewLink(&fakePort{replies: []string{`{"error":"unknown command"}` + "\n"}}, 0)

	_, err := link.Command(context.Background(), map[string]string{"bogus": "x"})
	if !errors.Is(err, ErrBoard) {
		t.Errorf("Command() error = %v, want ErrBoard", err)
	}
}

func TestCommand_WriteError(t *testing.T) {
	link := NewLink(&fakePort{writeErr: io.ErrClosedPipe}, 0)

	_, err := link.Command(context.Background(), map[string]string{"led": "off"})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Command() error = %v, want wrapped io.ErrClosedPipe", err)
	}
}

func TestCommand_CancelledContext(t *testing.T) {
	link := NewLink(&fakePort{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := link.Command(ctx, map[string]string{"led": "off"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Command() error = %v, want context.Canceled", err)
	}
}

func TestClose(t *testing.T) {
	port := &fakePort{}
	link := NewLink(port, 0)

	if err := link.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !port.closed {
		t.Error("port not closed")
	}
	if err := link.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if _, err := link.Command(context.Background(), map[string]string{"led": "on"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Command() after Close error = %v, want ErrClosed", err)
	}
	if err := link.HealthCheck(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrClosed", err)
	}
}

// silentPort is a board that never answers. Like go.bug.st/serial, each Read
// blocks for the configured timeout and then returns (0, nil).
type silentPort struct {
	mu       sync.Mutex
	timeout  time.Duration
	timeouts []time.Duration
	reads    int
}

func (p *silentPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *silentPort) Close() error                { return nil }
func (p *silentPort) ResetInputBuffer() error     { return nil }

func (p *silentPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	p.timeouts = append(p.timeouts, t)
	return nil
}

func (p *silentPort) Read([]byte) (int, error) {
	p.mu.Lock()
	wait := p.timeout
	p.reads++
	p.mu.Unlock()
	time.Sleep(wait)
	return 0, nil
}

func TestCommand_SilentBoardTimesOutOnce(t *testing.T) {
	port := &silentPort{}
	link := NewLink(port, 100*time.Millisecond)

	start := time.Now()
	_, err := link.Command(context.Background(), map[string]string{"get": "rssi"})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrNoReply) {
		t.Errorf("Command() error = %v, want ErrNoReply", err)
	}
	if elapsed > 400*time.Millisecond {
		t.Errorf("Command() took %v, want about one 100ms timeout", elapsed)
	}
	if port.reads != 1 {
		t.Errorf("reads = %d, want 1", port.reads)
	}
}

func TestCommand_ContextDeadlineCapsReadTimeout(t *testing.T) {
	port := &silentPort{}
	link := NewLink(port, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := link.Command(ctx, map[string]string{"get": "rssi"})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrNoReply) {
		t.Errorf("Command() error = %v, want ErrNoReply", err)
	}
	if elapsed > time.Second {
		t.Errorf("Command() took %v, want the 100ms ctx deadline to bound it", elapsed)
	}
	for _, to := range port.timeouts {
		if to > 100*time.Millisecond {
			t.Errorf("read timeout %v exceeds the ctx deadline", to)
		}
	}
}

func TestCommand_WaiterGivesUpWithContext(t *testing.T) {
	link := NewLink(&silentPort{}, 500*time.Millisecond)

	busy := make(chan struct{})
	go func() {
		defer close(busy)
		//nolint:errcheck // holds the link for one timeout
		link.Command(context.Background(), map[string]string{"led": "on"})
	}()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := link.Command(ctx, map[string]string{"get": "rssi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Command() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("waiting caller took %v, want about 50ms", elapsed)
	}

	// Health does not queue behind the in-flight command.
	if err := link.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() during command error = %v", err)
	}
	<-busy
}

// tricklePort delivers its reply one byte per Read.
type tricklePort struct {
	reply []byte
}

func (p *tricklePort) Write(b []byte) (int, error)        { return len(b), nil }
func (p *tricklePort) Close() error                       { return nil }
func (p *tricklePort) ResetInputBuffer() error            { return nil }
func (p *tricklePort) SetReadTimeout(time.Duration) error { return nil }

func (p *tricklePort) Read(b []byte) (int, error) {
	if len(p.reply) == 0 {
		return 0, nil
	}
	b[0] = p.reply[0]
	p.reply = p.reply[1:]
	return 1, nil
}

func TestCommand_ReplyAcrossReads(t *testing.T) {
	link := NewLink(&tricklePort{reply: []byte(`{"rssi":-58}` + "\n")}, 0)

	reply, err := link.Command(context.Background(), map[string]string{"get": "rssi"})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if reply["rssi"] != float64(-58) {
		t.Errorf("reply[rssi] = %v, want -58", reply["rssi"])
	}
}

func TestCommand_OversizedReply(t *testing.T) {
	link := NewLink(&tricklePort{reply: bytes.Repeat([]byte("x"), maxReplySize+10)}, 0)

	_, err := link.Command(context.Background(), map[string]string{"get": "rssi"})
	if !errors.Is(err, ErrBadReply) {
		t.Errorf("Command() error = %v, want ErrBadReply", err)
	}
}
