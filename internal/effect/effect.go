// Package effect implements the effect system (C10): a small algebra of
// deferred actions an Update function can return without performing any
// I/O itself, plus the primitives that drive the bubbletea Cmd loop —
// sending to the coordinator, polling its UiMsg subscription, toast
// expiry, and process exit.
package effect

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/azedarach/azedarach/internal/coordinator"
)

// Action is whatever an effect ultimately produces back into Update —
// typically a coordinator.UiMsg, a tick, or an internal housekeeping
// value.
type Action interface{}

// Effect is a thunk that may block briefly; callers run it on its own
// goroutine and feed the resulting Action back into Update.
type Effect func(ctx context.Context) Action

// None is the effect that does nothing.
func None() Effect {
	return func(ctx context.Context) Action { return nil }
}

// From wraps an already-known action as a trivial effect, for Update
// paths that want to re-enter the loop without doing real I/O.
func From(a Action) Effect {
	return func(ctx context.Context) Action { return a }
}

// BatchAction carries a set of actions produced by running every member
// of a Batch concurrently.
type BatchAction []Action

// Batch runs every effect concurrently and joins their results; order in
// the returned BatchAction matches the input order.
func Batch(effects ...Effect) Effect {
	return func(ctx context.Context) Action {
		results := make([]Action, len(effects))
		done := make(chan struct{}, len(effects))
		for i, e := range effects {
			i, e := i, e
			go func() {
				defer func() { done <- struct{}{} }()
				if e == nil {
					return
				}
				results[i] = e(ctx)
			}()
		}
		for range effects {
			<-done
		}
		return BatchAction(results)
	}
}

// Map transforms the action an effect produces.
func Map(e Effect, f func(Action) Action) Effect {
	return func(ctx context.Context) Action {
		return f(e(ctx))
	}
}

// SendToCoordinator dispatches a request Msg without waiting for a
// response; the coordinator's reply, if any, arrives later via the
// UiMsg subscription rather than this effect's Action.
func SendToCoordinator(c *coordinator.Coordinator, m coordinator.Msg) Effect {
	return func(ctx context.Context) Action {
		c.Send(m)
		return nil
	}
}

// PollSubscription receives at most one UiMsg from ch, non-blocking: if
// nothing is pending it returns nil immediately rather than stalling the
// ~60Hz tick loop behind a channel read.
func PollSubscription(ch <-chan coordinator.UiMsg) Effect {
	return func(ctx context.Context) Action {
		select {
		case evt := <-ch:
			return evt
		default:
			return nil
		}
	}
}

// ToastExpired marks a toast's display lifetime as elapsed.
type ToastExpired struct{ ID int }

// ScheduleToastExpiration fires a ToastExpired action after d elapses, or
// sooner if ctx is cancelled (in which case the zero ToastExpired is
// still returned — the UI treats it as "already gone").
func ScheduleToastExpiration(id int, d time.Duration) Effect {
	return func(ctx context.Context) Action {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		return ToastExpired{ID: id}
	}
}

// ExitSignal requests process termination.
type ExitSignal struct{ Code int }

// Exit produces an ExitSignal immediately.
func Exit(code int) Effect {
	return func(ctx context.Context) Action { return ExitSignal{Code: code} }
}

// LogLines carries the tail of a log file read for the Logs overlay.
type LogLines struct{ Lines []string }

// ReadLogTail reads the last n lines of path. Read errors come back as a
// single-line LogLines rather than as a Toast, since the Logs overlay
// itself is the natural place to show "no log file yet".
func ReadLogTail(path string, n int) Effect {
	return func(ctx context.Context) Action {
		data, err := os.ReadFile(path)
		if err != nil {
			return LogLines{Lines: []string{err.Error()}}
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > n {
			lines = lines[len(lines)-n:]
		}
		return LogLines{Lines: lines}
	}
}

// Tick is the periodic action driving the non-blocking subscription
// poll; the default cadence is ~60Hz (16ms), matching the bubbletea
// frame budget.
type Tick struct{ At time.Time }

const DefaultTickInterval = 16 * time.Millisecond

// Ticker produces a Tick effect on every interval until ctx is done,
// delivering each Tick to emit.
func Ticker(ctx context.Context, interval time.Duration, emit func(Tick)) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			emit(Tick{At: t})
		}
	}
}
