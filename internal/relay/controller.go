package relay

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/larsks/doorbell/internal/remote"
)

// Indicator is the locally exposed binary command surface
type Indicator interface {
	// SetDisplayedState reflects the relay state back to the controlling hub.
	SetDisplayedState(on bool)
	// OnCommand registers the function called when the hub issues a command.
	OnCommand(func(on bool))
}

// RemoteSource reports the current remote device handle, if one is available
type RemoteSource interface {
	Handle() (remote.Device, bool)
}

// Status is a point-in-time snapshot of a controller
type Status struct {
	State        State      `json:"state" yaml:"state"`
	Displayed    bool       `json:"displayed" yaml:"displayed"`
	ResetPending bool       `json:"reset_pending" yaml:"reset_pending"`
	ResetDue     *time.Time `json:"reset_due,omitempty" yaml:"reset_due,omitempty"`
	Disposed     bool       `json:"disposed" yaml:"disposed"`

	PushesAttempted  uint64 `json:"pushes_attempted" yaml:"pushes_attempted"`
	PushesDispatched uint64 `json:"pushes_dispatched" yaml:"pushes_dispatched"`
	PushesSkipped    uint64 `json:"pushes_skipped" yaml:"pushes_skipped"`
	PushErrors       uint64 `json:"push_errors" yaml:"push_errors"`
	Resets           uint64 `json:"resets" yaml:"resets"`
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock used to schedule resets
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller turns activations from an Indicator into a momentary pulse on a
// remote device. Every activation pushes the active value and restarts the
// dwell timer; when the timer fires the indicator is turned off and the
// inactive value is pushed.
//
// HandleCommand, the reset callback and Dispose are serialised by one mutex.
// Collaborators are called with the mutex held, so they must not call back
// into the controller synchronously.
type Controller struct {
	cfg       Config
	indicator Indicator
	remote    RemoteSource
	clock     Clock

	mu         sync.Mutex
	state      State
	displayed  bool
	pending    Timer
	resetDue   time.Time
	generation uint64
	disposed   bool
	status     Status
}

// NewController validates cfg and subscribes to the indicator's commands.
func NewController(cfg Config, indicator Indicator, source RemoteSource, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if indicator == nil {
		return nil, ErrIndicatorRequired
	}
	if source == nil {
		return nil, ErrRemoteRequired
	}

	c := &Controller{
		cfg:       cfg,
		indicator: indicator,
		remote:    source,
		clock:     RealClock(),
		state:     Idle,
	}
	for _, opt := range opts {
		opt(c)
	}

	indicator.OnCommand(c.HandleCommand)
	return c, nil
}

// Start publishes the initial off state to the indicator. The remote device
// is left alone. Start does nothing while a pulse is in progress, since the
// pending reset will turn the indicator off.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.state == Active {
		return
	}
	c.displayed = false
	c.indicator.SetDisplayedState(false)
}

// HandleCommand processes a command from the indicator. It never blocks on
// the remote device. A false command is accepted and does nothing; in
// particular it does not cut a pending reset short.
func (c *Controller) HandleCommand(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}

	if !c.cfg.DisableLogging {
		log.Printf("setting switch to %t", on)
	}

	if !on {
		return
	}

	c.state = Active
	c.displayed = true
	c.push(c.cfg.ActiveValue)
	c.cancelReset()
	c.scheduleReset()
}

// Dispose cancels any pending reset. Commands received afterwards are
// ignored. It is safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	c.cancelReset()
	c.generation++
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot of the controller
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.status
	s.State = c.state
	s.Displayed = c.displayed
	s.Disposed = c.disposed
	s.ResetPending = c.pending != nil
	if c.pending != nil {
		due := c.resetDue
		s.ResetDue = &due
	}
	return s
}

// Config returns the controller configuration
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) String() string {
	return fmt.Sprintf("Controller(%s/%s, %s)", c.cfg.ActiveValue, c.cfg.InactiveValue, c.cfg.DwellDuration)
}

// push hands v to the remote device if one is present. Failures are counted
// and otherwise ignored.
func (c *Controller) push(v remote.Value) {
	c.status.PushesAttempted++

	device, ok := c.remote.Handle()
	if !ok {
		c.status.PushesSkipped++
		if !c.cfg.DisableLogging {
			log.Printf("%v, not sending %s", remote.ErrUnavailable, v)
		}
		return
	}

	if err := device.SetState(v); err != nil {
		c.status.PushErrors++
		return
	}
	c.status.PushesDispatched++
}

func (c *Controller) cancelReset() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
		c.resetDue = time.Time{}
	}
}

// scheduleReset arms a new reset timer. The callback carries the generation
// it was armed with and does nothing once a newer timer exists.
func (c *Controller) scheduleReset() {
	c.generation++
	generation := c.generation
	c.resetDue = c.clock.Now().Add(c.cfg.DwellDuration)
	c.pending = c.clock.AfterFunc(c.cfg.DwellDuration, func() {
		c.reset(generation)
	})
}

func (c *Controller) reset(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || generation != c.generation || c.pending == nil {
		return
	}

	c.pending = nil
	c.resetDue = time.Time{}
	c.state = Idle
	c.displayed = false
	c.status.Resets++

	c.indicator.SetDisplayedState(false)
	c.push(c.cfg.InactiveValue)
}
