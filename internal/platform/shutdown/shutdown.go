// Package shutdown turns process signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// NotifyContext is cancelled on the first SIGINT or SIGTERM. A second
// signal calls force, which normally exits the process without waiting
// for pending form writes to drain.
func NotifyContext(parent context.Context, force func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-done:
			return
		}
		select {
		case <-ch:
			if force != nil {
				force()
			}
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		cancel()
		once.Do(func() { close(done) })
	}
}
