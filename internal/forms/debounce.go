package forms

import (
	"context"
	"sync"
	"time"

	"github.com/hausee/navigator-backend/internal/platform/clock"
)

type DebounceState int

const (
	Idle DebounceState = iota
	Scheduled
	Flushing
)

func (s DebounceState) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Flushing:
		return "flushing"
	default:
		return "idle"
	}
}

// WriteFunc performs one flush of the latest value.
type WriteFunc[T any] func(ctx context.Context, v T) error

// Debouncer coalesces Schedule calls and writes only the newest value
// once no new value has arrived for the configured delay. At most one
// write runs at a time; a value scheduled during a write is flushed
// after it, exactly once. Failed writes are reported and never retried.
type Debouncer[T any] struct {
	clock    clock.Clock
	delay    time.Duration
	write    WriteFunc[T]
	onResult func(v T, err error)
	ctx      context.Context

	mu         sync.Mutex
	state      DebounceState
	timer      *clock.Timer
	gen        uint64
	pending    T
	hasPending bool
	inFlight   chan struct{}
	closed     bool
}

// NewDebouncer builds a Debouncer. onResult may be nil. Timer-driven
// writes run with ctx, which should outlive individual requests.
func NewDebouncer[T any](ctx context.Context, clk clock.Clock, delay time.Duration, write WriteFunc[T], onResult func(v T, err error)) *Debouncer[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &Debouncer[T]{clock: clk, delay: delay, write: write, onResult: onResult, ctx: ctx}
}

func (d *Debouncer[T]) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Schedule replaces any pending value with v and restarts the quiet
// period. While a write is in flight v is queued for the next flush.
func (d *Debouncer[T]) Schedule(v T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.pending = v
	d.hasPending = true
	if d.state != Flushing {
		d.armLocked()
	}
	return nil
}

func (d *Debouncer[T]) armLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.state = Scheduled
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	var zero T
	d.pending = zero
	d.hasPending = false
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.state != Scheduled || !d.hasPending {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.cancelLocked()
	done := d.beginLocked()
	d.mu.Unlock()

	d.run(d.ctx, v, done)
}

func (d *Debouncer[T]) beginLocked() chan struct{} {
	d.state = Flushing
	done := make(chan struct{})
	d.inFlight = done
	return done
}

func (d *Debouncer[T]) run(ctx context.Context, v T, done chan struct{}) error {
	err := d.write(ctx, v)
	if d.onResult != nil {
		d.onResult(v, err)
	}

	d.mu.Lock()
	close(done)
	d.inFlight = nil
	if d.hasPending && !d.closed {
		d.armLocked()
	} else {
		d.state = Idle
	}
	d.mu.Unlock()
	return err
}

// waitLocked releases the lock until no write is in flight. It returns
// with the lock held unless ctx ends first.
func (d *Debouncer[T]) waitLocked(ctx context.Context) error {
	for d.inFlight != nil {
		ch := d.inFlight
		d.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		d.mu.Lock()
	}
	return nil
}

// Flush writes the pending value now, if there is one, and waits for any
// write already in flight.
func (d *Debouncer[T]) Flush(ctx context.Context) error {
	d.mu.Lock()
	if err := d.waitLocked(ctx); err != nil {
		return err
	}
	if !d.hasPending {
		d.mu.Unlock()
		return nil
	}
	v := d.pending
	d.cancelLocked()
	done := d.beginLocked()
	d.mu.Unlock()
	return d.run(ctx, v, done)
}

// Close flushes the pending value and rejects further schedules.
func (d *Debouncer[T]) Close(ctx context.Context) error {
	err := d.Flush(ctx)
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	return err
}
