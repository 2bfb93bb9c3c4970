package agentmatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/looplab/fsm"
)

const (
	EventNext   = "next"
	EventBack   = "back"
	EventGoTo   = "goto"
	EventSubmit = "submit"
)

var stepStates = [...]string{
	"",
	"about_you",
	"intent",
	"details",
	"consent",
	"submitted",
}

func stepOf(state string) int {
	for i, s := range stepStates {
		if s != "" && s == state {
			return i
		}
	}
	return 0
}

func gotoEvent(step int) string { return EventGoTo + "_" + strconv.Itoa(step) }

// Action is one wizard move. Step is read by goto only; At stamps submits.
type Action struct {
	Event string
	Step  int
	At    time.Time
}

// Func adapts the action for forms.Holder Update and Commit.
func (a Action) Func(ctx context.Context) func(Request) (Request, error) {
	return func(r Request) (Request, error) { return Apply(ctx, r, a) }
}

func newMachine(current int) *fsm.FSM {
	events := fsm.Events{
		{Name: EventSubmit, Src: []string{stepStates[ConsentStep]}, Dst: stepStates[SubmittedStep]},
	}
	for s := FirstStep; s < ConsentStep; s++ {
		events = append(events,
			fsm.EventDesc{Name: EventNext, Src: []string{stepStates[s]}, Dst: stepStates[s+1]},
			fsm.EventDesc{Name: EventBack, Src: []string{stepStates[s+1]}, Dst: stepStates[s]},
		)
	}
	for dst := FirstStep; dst <= ConsentStep; dst++ {
		var src []string
		for s := FirstStep; s <= ConsentStep; s++ {
			if s != dst {
				src = append(src, stepStates[s])
			}
		}
		events = append(events, fsm.EventDesc{Name: gotoEvent(dst), Src: src, Dst: stepStates[dst]})
	}

	return fsm.NewFSM(stepStates[current], events, fsm.Callbacks{
		// Moving forward requires every step left behind to be complete.
		// Submit rechecks the whole request.
		"before_event": func(_ context.Context, e *fsm.Event) {
			r := e.Args[0].(*Request)
			from, to := stepOf(e.Src), stepOf(e.Dst)
			if e.Event == EventSubmit {
				from = FirstStep
			}
			for s := from; s < to && s <= ConsentStep; s++ {
				if errs := r.ValidateStep(s); errs != nil {
					e.Cancel(errs)
					return
				}
			}
		},
		"enter_state": func(_ context.Context, e *fsm.Event) {
			r := e.Args[0].(*Request)
			r.CurrentStep = stepOf(e.Dst)
		},
		"enter_" + stepStates[SubmittedStep]: func(_ context.Context, e *fsm.Event) {
			r := e.Args[0].(*Request)
			at := e.Args[1].(time.Time).UTC()
			r.Status = StatusSubmitted
			r.SubmittedAt = &at
		},
	})
}

// Apply performs a on r. Incomplete steps come back as StepErrors; moves
// that make no sense from the current step wrap ErrInvalidStep.
func Apply(ctx context.Context, r Request, a Action) (Request, error) {
	if r.Status == StatusSubmitted {
		return r, ErrSubmitted
	}
	if r.CurrentStep < FirstStep || r.CurrentStep > ConsentStep {
		return r, fmt.Errorf("%w: current step %d", ErrInvalidStep, r.CurrentStep)
	}

	event := a.Event
	switch a.Event {
	case EventNext, EventBack, EventSubmit:
	case EventGoTo:
		if a.Step < FirstStep || a.Step > ConsentStep {
			return r, fmt.Errorf("%w: cannot go to step %d", ErrInvalidStep, a.Step)
		}
		if a.Step == r.CurrentStep {
			return r, nil
		}
		event = gotoEvent(a.Step)
	default:
		return r, fmt.Errorf("%w: unknown action %q", ErrInvalidStep, a.Event)
	}

	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	next := r
	m := newMachine(r.CurrentStep)
	if err := m.Event(ctx, event, &next, at); err != nil {
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) && canceled.Err != nil {
			return r, canceled.Err
		}
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return r, fmt.Errorf("%w: %s from step %d", ErrInvalidStep, a.Event, r.CurrentStep)
		}
		return r, err
	}
	return next, nil
}
