// Package sync simulates the background cloud synchronization cycle and
// reports its status to clients. No data is transferred: the engine flips
// between idle and syncing on a timer so the UI indicator behaves like the
// real thing.
package sync

import (
	"context"
	"sync"
	"time"

	"filedeck/events"
	"filedeck/metrics"
)

// Sync states.
const (
	StateIdle    = "idle"
	StateSyncing = "syncing"
)

const maxWindow = 2 * time.Second

// Status is the externally visible sync state.
type Status struct {
	State    string    `json:"state"`
	LastSync time.Time `json:"lastSync"`
}

// Engine drives the simulated sync cycle. One engine is shared by every
// connection; per-connection services subscribe for transitions.
type Engine struct {
	broadcaster *events.Broadcaster
	interval    time.Duration
	window      time.Duration

	mu          sync.Mutex
	status      Status
	subscribers map[chan Status]struct{}
}

func NewEngine(broadcaster *events.Broadcaster, interval time.Duration) *Engine {
	window := interval / 10
	if window > maxWindow {
		window = maxWindow
	}
	return &Engine{
		broadcaster: broadcaster,
		interval:    interval,
		window:      window,
		status:      Status{State: StateIdle},
		subscribers: make(map[chan Status]struct{}),
	}
}

// Status returns the current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe registers for state transitions. The caller must Unsubscribe.
func (e *Engine) Subscribe() chan Status {
	ch := make(chan Status, 8)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (e *Engine) Unsubscribe(ch chan Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subscribers, ch)
	close(ch)
}

// Run cycles until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.cycle(ctx)
		}
	}
}

// cycle performs one syncing window and returns to idle.
func (e *Engine) cycle(ctx context.Context) {
	e.transition(StateSyncing, false)

	select {
	case <-ctx.Done():
		e.transition(StateIdle, false)
		return
	case <-time.After(e.window):
	}

	e.transition(StateIdle, true)
	e.broadcaster.Publish(events.Event{Type: events.EventSync})
	metrics.RecordSyncCycle()
}

// transition updates the state, optionally stamping LastSync, and fans the
// new status out to subscribers. A saturated subscriber misses the update.
func (e *Engine) transition(state string, stamp bool) {
	e.mu.Lock()
	e.status.State = state
	if stamp {
		e.status.LastSync = time.Now()
	}
	status := e.status
	for ch := range e.subscribers {
		select {
		case ch <- status:
		default:
		}
	}
	e.mu.Unlock()
}
