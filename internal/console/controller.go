package console

import (
	"sync"

	"github.com/tokendeck/tokendeck/internal/wallet"
)

// Controller is the composition root of the console: it owns the input
// buffer and routes keyboard events to the dispatcher and history. The
// wallet provider is injected so tests can substitute a fake session.
type Controller struct {
	mu    sync.Mutex
	input []rune

	dispatcher *Dispatcher
	history    *History
	transcript *Transcript
	provider   wallet.Provider
	cancelSub  func()
}

// NewController wires the console pieces together and subscribes to
// wallet session changes so the surface can re-render on disconnects
// that happen outside any command.
func NewController(d *Dispatcher, h *History, t *Transcript, provider wallet.Provider, onSessionChange func(*wallet.Session)) *Controller {
	c := &Controller{
		dispatcher: d,
		history:    h,
		transcript: t,
		provider:   provider,
	}
	if onSessionChange != nil {
		c.cancelSub = provider.Subscribe(onSessionChange)
	}
	return c
}

// Close cancels the session subscription.
func (c *Controller) Close() {
	if c.cancelSub != nil {
		c.cancelSub()
	}
}

// HandleRune appends a typed character to the input buffer. Typing is
// allowed while a command executes; only submission is gated.
func (c *Controller) HandleRune(r rune) {
	c.mu.Lock()
	c.input = append(c.input, r)
	c.mu.Unlock()
}

// HandleBackspace removes the last character of the input buffer.
func (c *Controller) HandleBackspace() {
	c.mu.Lock()
	if len(c.input) > 0 {
		c.input = c.input[:len(c.input)-1]
	}
	c.mu.Unlock()
}

// HandleEnter submits the input buffer. While a command is executing
// the submission is ignored outright: no history entry, no transcript
// line, and the buffer stays as typed.
func (c *Controller) HandleEnter() {
	c.mu.Lock()
	raw := string(c.input)
	c.mu.Unlock()

	if !c.dispatcher.Submit(raw) {
		return
	}

	c.mu.Lock()
	c.input = nil
	c.mu.Unlock()
}

// HandleUp browses one step toward the oldest history entry, copying it
// into the input buffer. Disabled while a command executes.
func (c *Controller) HandleUp() {
	if c.dispatcher.Busy() {
		return
	}
	if value, ok := c.history.Up(); ok {
		c.setInput(value)
	}
}

// HandleDown browses one step back toward "not browsing", clearing the
// buffer when it passes the newest entry. Disabled while executing.
func (c *Controller) HandleDown() {
	if c.dispatcher.Busy() {
		return
	}
	if value, ok := c.history.Down(); ok {
		c.setInput(value)
	}
}

func (c *Controller) setInput(s string) {
	c.mu.Lock()
	c.input = []rune(s)
	c.mu.Unlock()
}

// InputBuffer returns the current in-progress input.
func (c *Controller) InputBuffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.input)
}

// Busy reports whether a command is executing.
func (c *Controller) Busy() bool {
	return c.dispatcher.Busy()
}

// Session returns the current wallet session projection (nil when
// disconnected).
func (c *Controller) Session() *wallet.Session {
	return c.provider.Active()
}

// Transcript exposes the transcript for the presentation layer.
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}
