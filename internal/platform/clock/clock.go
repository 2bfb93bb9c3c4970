// Package clock abstracts wall time so debounce timing can be driven
// deterministically in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed. The returned Timer cancels
	// the call if it has not fired yet.
	AfterFunc(d time.Duration, f func()) *Timer
}

type Timer struct {
	stopFunc func() bool
}

// Stop reports whether the call was cancelled before it fired.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}
