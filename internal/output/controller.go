package output

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/ledlink-core/internal/infrastructure/logging"
)

// Driver applies a state to the hardware.
type Driver interface {
	Set(ctx context.Context, s State) error
}

// Controller applies commands through a Driver and holds the resulting state.
//
// Thread Safety:
//   - Commands are serialised so a toggle always sees the state left by the
//     previous command.
//   - State may be read concurrently while a command is in flight; it returns
//     the last applied state.
type Controller struct {
	driver Driver
	logger *logging.Logger

	cmdMu sync.Mutex

	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewController creates a Controller whose state starts at initial.
// The driver is not called until Init or Apply.
func NewController(driver Driver, initial State, logger *logging.Logger) *Controller {
	if initial != On {
		initial = Off
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		driver: driver,
		logger: logger.With("component", "output"),
		state:  initial,
	}
}

// Init drives the initial state to the hardware.
func (c *Controller) Init(ctx context.Context) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	s := c.State()
	if err := c.driver.Set(ctx, s); err != nil {
		return fmt.Errorf("%w: initial state %s: %w", ErrDriver, s, err)
	}
	return nil
}

// Apply executes cmd and returns the new state. On driver failure the state
// is unchanged and the error wraps ErrDriver.
func (c *Controller) Apply(ctx context.Context, cmd Command) (State, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	prev := c.State()
	next := cmd.Next(prev)

	if err := c.driver.Set(ctx, next); err != nil {
		c.logger.Warn("LED command failed", "command", string(cmd), "error", err)
		return prev, fmt.Errorf("%w: %w", ErrDriver, err)
	}

	c.mu.Lock()
	c.state = next
	callback := c.onChange
	c.mu.Unlock()

	if next != prev {
		c.logger.Info("LED state changed", "from", string(prev), "to", string(next))
		if callback != nil {
			callback(next)
		}
	}
	return next, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetOnChange registers a callback invoked after the state changes. It runs
// with the command lock held, so it must not block.
func (c *Controller) SetOnChange(callback func(State)) {
	c.mu.Lock()
	c.onChange = callback
	c.mu.Unlock()
}
