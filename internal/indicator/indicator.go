// Package indicator provides the local command surfaces a relay controller
// listens to: a HomeKit switch, an MQTT switch and a REST endpoint.
package indicator

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Surface is a local indicator with a lifecycle
type Surface interface {
	SetDisplayedState(on bool)
	OnCommand(func(on bool))
	Start(ctx context.Context) error
	Close() error
	String() string
}

// commandHub holds the displayed state and the registered command handlers.
// A surface records a command as its displayed state before dispatching it,
// so a hub that reads the state back sees what it asked for.
type commandHub struct {
	mu        sync.Mutex
	handlers  []func(bool)
	displayed bool
}

func (h *commandHub) OnCommand(handler func(on bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handler)
}

func (h *commandHub) setDisplayed(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.displayed = on
}

// Displayed returns the state last shown by this surface
func (h *commandHub) Displayed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.displayed
}

// emit records on and calls the handlers without holding the lock.
func (h *commandHub) emit(on bool) {
	h.mu.Lock()
	h.displayed = on
	handlers := slices.Clone(h.handlers)
	h.mu.Unlock()

	for _, handler := range handlers {
		handler(on)
	}
}

// Multi fans displayed state out to several surfaces and merges their
// commands.
type Multi struct {
	surfaces []Surface
}

func NewMulti(surfaces ...Surface) *Multi {
	return &Multi{surfaces: surfaces}
}

func (m *Multi) SetDisplayedState(on bool) {
	for _, s := range m.surfaces {
		s.SetDisplayedState(on)
	}
}

// OnCommand registers handler with every surface. When one surface raises a
// command the others are updated to match, so all of them show the same
// state while the relay is active.
func (m *Multi) OnCommand(handler func(on bool)) {
	for _, s := range m.surfaces {
		origin := s
		s.OnCommand(func(on bool) {
			for _, other := range m.surfaces {
				if other != origin {
					other.SetDisplayedState(on)
				}
			}
			handler(on)
		})
	}
}

// Start starts each surface in order and stops at the first failure.
func (m *Multi) Start(ctx context.Context) error {
	for _, s := range m.surfaces {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every surface and returns the joined errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.surfaces {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Surfaces returns the wrapped surfaces
func (m *Multi) Surfaces() []Surface {
	return m.surfaces
}

func (m *Multi) String() string {
	return "Multi"
}
