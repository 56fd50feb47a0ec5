// Package console implements the interactive command surface: the
// session transcript, command history, single-flight dispatcher, and
// the controller that wires keyboard events to them.
package console

import (
	"sync"

	"github.com/google/uuid"
)

// LineKind classifies a transcript line.
type LineKind string

// Line kinds.
const (
	LineCommand LineKind = "command"
	LineOutput  LineKind = "output"
	LineInfo    LineKind = "info"
	LineError   LineKind = "error"
)

// Line is one immutable transcript entry. Seq is monotonic within a
// transcript and survives resets (ids never repeat).
type Line struct {
	ID   string
	Kind LineKind
	Text string
	Seq  uint64
}

// Transcript is the append-only ordered log of console lines. The only
// way lines are ever discarded is Reset, which re-emits the welcome
// banner.
type Transcript struct {
	mu       sync.Mutex
	lines    []Line
	seq      uint64
	banner   []string
	onChange func()
}

// NewTranscript creates a transcript seeded with the welcome banner.
func NewTranscript(banner []string) *Transcript {
	t := &Transcript{banner: banner}
	t.emitBanner()
	return t
}

// OnChange registers a callback fired after every append or reset.
// Used by the presentation layer to trigger a re-render.
func (t *Transcript) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Append adds one line and returns it.
func (t *Transcript) Append(kind LineKind, text string) Line {
	t.mu.Lock()
	line := t.appendLocked(kind, text)
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
	return line
}

func (t *Transcript) appendLocked(kind LineKind, text string) Line {
	t.seq++
	line := Line{
		ID:   uuid.NewString(),
		Kind: kind,
		Text: text,
		Seq:  t.seq,
	}
	t.lines = append(t.lines, line)
	return line
}

// Reset discards all lines and re-emits the welcome banner.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.lines = nil
	t.emitBannerLocked()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Transcript) emitBanner() {
	t.mu.Lock()
	t.emitBannerLocked()
	t.mu.Unlock()
}

func (t *Transcript) emitBannerLocked() {
	for _, text := range t.banner {
		t.appendLocked(LineInfo, text)
	}
}

// Lines returns a snapshot of the transcript.
func (t *Transcript) Lines() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Line, len(t.lines))
	copy(out, t.lines)
	return out
}

// Len returns the current line count.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

// BannerLen returns the welcome banner's line count.
func (t *Transcript) BannerLen() int {
	return len(t.banner)
}

// DefaultBanner is the welcome banner shown at startup and after clear.
func DefaultBanner(network string) []string {
	return []string{
		"tokendeck — wallet console (" + network + ")",
		"Type 'help' to see available commands.",
	}
}
