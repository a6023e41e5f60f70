package remote

import (
	"log"
	"sync"
)

// Dispatcher runs blocking sends on a single goroutine. It holds at most one
// pending value; a newer value replaces an unsent one, so a slow device never
// accumulates a backlog and the last value set is the last one sent.
type Dispatcher struct {
	name string
	send func(Value) error

	mu         sync.Mutex
	pending    Value
	hasPending bool
	closed     bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewDispatcher starts a dispatcher that delivers values with send.
func NewDispatcher(name string, send func(Value) error) *Dispatcher {
	d := &Dispatcher{
		name:    name,
		send:    send,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// SetState queues v for delivery and returns immediately.
func (d *Dispatcher) SetState(v Value) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.hasPending {
		log.Printf("%s: replacing unsent value %s with %s", d.name, d.pending, v)
	}
	d.pending = v
	d.hasPending = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

func (d *Dispatcher) next() (Value, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.pending, d.hasPending
	d.pending, d.hasPending = "", false
	return v, ok
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
			v, ok := d.next()
			if !ok {
				continue
			}
			if err := d.send(v); err != nil {
				log.Printf("%s: failed to set state %s: %v", d.name, v, err)
			}
		}
	}
}

// Close stops the dispatcher after any in-flight send completes. Unsent
// values are discarded.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.done)
	<-d.stopped
	return nil
}

func (d *Dispatcher) String() string {
	return d.name
}
