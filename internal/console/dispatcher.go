package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tokendeck/tokendeck/internal/log"
)

// State is the dispatcher's position in the per-submission machine.
type State int

// Dispatcher states.
const (
	StateIdle State = iota
	StateDispatching
	StateExecuting
)

// Action is one console command. Run may suspend on remote calls; any
// returned error becomes exactly one Error transcript line.
type Action struct {
	Name    string
	Usage   string
	Summary string
	Run     func(ctx context.Context, args []string) error
}

// Dispatcher maps command keywords to actions and serializes execution:
// at most one submission is in flight at a time, and a second Enter
// while busy has no observable effect.
type Dispatcher struct {
	mu      sync.Mutex
	state   State
	actions map[string]*Action
	order   []string

	transcript *Transcript
	history    *History
	onDone     func()
	log        zerolog.Logger
}

// NewDispatcher creates a dispatcher over the transcript and history.
func NewDispatcher(transcript *Transcript, history *History) *Dispatcher {
	return &Dispatcher{
		actions:    make(map[string]*Action),
		transcript: transcript,
		history:    history,
		log:        log.Console,
	}
}

// Register adds an action under its keyword. Registration order is the
// help catalogue order.
func (d *Dispatcher) Register(a *Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(a.Name)
	if _, dup := d.actions[key]; !dup {
		d.order = append(d.order, key)
	}
	d.actions[key] = a
}

// Catalogue returns the registered actions in registration order.
func (d *Dispatcher) Catalogue() []*Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Action, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.actions[key])
	}
	return out
}

// State returns the current dispatch state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Busy reports whether a submission is in flight.
func (d *Dispatcher) Busy() bool {
	return d.State() != StateIdle
}

// OnDone registers a callback fired when an action finishes and the
// dispatcher returns to Idle.
func (d *Dispatcher) OnDone(fn func()) {
	d.mu.Lock()
	d.onDone = fn
	d.mu.Unlock()
}

// Submit processes one line of input. It returns true when the input
// was consumed (including the whitespace-only no-op) and false when it
// was ignored because a command is already executing. The command echo
// and history push happen before the keyword is even parsed, so
// unknown commands still land in history.
func (d *Dispatcher) Submit(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// Whitespace-only input: no transcript line, no history entry.
		return true
	}

	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return false
	}
	d.state = StateDispatching
	d.mu.Unlock()

	d.transcript.Append(LineCommand, "> "+trimmed)
	d.history.Push(trimmed)

	fields := strings.Fields(trimmed)
	keyword := strings.ToLower(fields[0])

	d.mu.Lock()
	action, ok := d.actions[keyword]
	d.mu.Unlock()

	if !ok {
		d.transcript.Append(LineError, "Command not found: "+fields[0])
		d.transcript.Append(LineOutput, "Type 'help' to see available commands.")
		d.finish()
		return true
	}

	d.mu.Lock()
	d.state = StateExecuting
	d.mu.Unlock()

	d.log.Debug().Str("command", keyword).Msg("executing")
	go d.run(action, fields[1:])
	return true
}

// run executes the action off the UI goroutine. Nothing an action does
// may crash the console loop: errors become one Error line, and a
// panic is downgraded to the same.
func (d *Dispatcher) run(action *Action, args []string) {
	defer d.finish()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("command", action.Name).Msg("action panicked")
			d.transcript.Append(LineError, fmt.Sprintf("internal error running %s", action.Name))
		}
	}()

	if err := action.Run(context.Background(), args); err != nil {
		d.transcript.Append(LineError, err.Error())
	}
}

func (d *Dispatcher) finish() {
	d.mu.Lock()
	d.state = StateIdle
	fn := d.onDone
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}
