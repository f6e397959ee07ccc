// Package examtimer is the client-side companion to the attempt API: a
// cooperative, single-goroutine loop that counts down the attempt's remaining
// time, debounces autosaves, and fires the auto-submit when the countdown hits
// zero. It holds no authoritative state; the server re-derives every deadline
// from its own clock, so everything here is UI affordance plus call triggers.
package examtimer

import (
	"context"
	"encoding/json"
	"time"
)

// Callbacks connect the loop to the attempt API client. Submit should map an
// ALREADY_SUBMITTED response to a nil error: on the auto-submit path that
// outcome means the server already finalized the attempt, which is success.
type Callbacks struct {
	SaveAnswer  func(questionID uint, response json.RawMessage) error
	Submit      func(trigger string) error
	OnWarning   func(remaining time.Duration)
	OnSaveError func(questionID uint, err error)
}

// Options tune the loop. Zero values fall back to the defaults used in
// production: 1s ticks, 3s autosave debounce, 5min warning threshold.
type Options struct {
	TickInterval     time.Duration
	SaveDebounce     time.Duration
	WarningThreshold time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.TickInterval <= 0 {
		out.TickInterval = time.Second
	}
	if out.SaveDebounce <= 0 {
		out.SaveDebounce = 3 * time.Second
	}
	if out.WarningThreshold <= 0 {
		out.WarningThreshold = 5 * time.Minute
	}
	return out
}

type editEvent struct {
	questionID uint
	response   json.RawMessage
	flush      bool
}

// Controller drives one attempt. Not safe for use after Run returns.
type Controller struct {
	callbacks Callbacks
	opts      Options

	remaining        time.Duration
	elapsedSinceEdit time.Duration

	edits chan editEvent
	ticks <-chan time.Time // test override; nil means a real ticker

	currentQuestion uint
	pending         json.RawMessage
	dirty           bool

	warned     bool
	submitting bool
	submitted  bool
}

// New seeds the countdown with the server-reported remaining time.
func New(remaining time.Duration, callbacks Callbacks, opts Options) *Controller {
	return &Controller{
		callbacks: callbacks,
		opts:      opts.withDefaults(),
		remaining: remaining,
		edits:     make(chan editEvent, 16),
	}
}

// Edit records the latest response for the currently displayed question. The
// loop saves it after the debounce window of inactivity. Switching questions
// flushes nothing by itself; callers should Flush before navigating if they
// want the old question persisted immediately.
func (c *Controller) Edit(questionID uint, response json.RawMessage) {
	c.edits <- editEvent{questionID: questionID, response: response}
}

// Flush forces an immediate save of the pending answer (the manual "Save
// Answer" action).
func (c *Controller) Flush() {
	c.edits <- editEvent{flush: true}
}

// Run blocks until the context is cancelled or the attempt has been
// submitted. It is the only goroutine touching the controller state.
func (c *Controller) Run(ctx context.Context) {
	ticks := c.ticks
	if ticks == nil {
		ticker := time.NewTicker(c.opts.TickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.edits:
			c.handleEdit(ev)
		case <-ticks:
			c.handleTick()
			if c.submitted {
				return
			}
		}
	}
}

func (c *Controller) handleEdit(ev editEvent) {
	if c.submitted || c.submitting {
		return
	}
	if ev.flush {
		c.saveNow()
		return
	}
	c.currentQuestion = ev.questionID
	c.pending = ev.response
	c.dirty = true
	c.elapsedSinceEdit = 0
}

func (c *Controller) handleTick() {
	c.remaining -= c.opts.TickInterval
	if c.remaining < 0 {
		c.remaining = 0
	}

	if !c.warned && c.remaining > 0 && c.remaining <= c.opts.WarningThreshold {
		c.warned = true
		if c.callbacks.OnWarning != nil {
			c.callbacks.OnWarning(c.remaining)
		}
	}

	if c.dirty {
		c.elapsedSinceEdit += c.opts.TickInterval
		if c.elapsedSinceEdit >= c.opts.SaveDebounce {
			c.saveNow()
		}
	}

	if c.remaining == 0 {
		c.autoSubmit()
	}
}

// saveNow persists the pending answer. A failure keeps the answer dirty so the
// next debounce window (or a manual Flush) retries; the attempt itself is
// never failed from here.
func (c *Controller) saveNow() {
	if !c.dirty || c.callbacks.SaveAnswer == nil {
		return
	}
	if err := c.callbacks.SaveAnswer(c.currentQuestion, c.pending); err != nil {
		if c.callbacks.OnSaveError != nil {
			c.callbacks.OnSaveError(c.currentQuestion, err)
		}
		c.elapsedSinceEdit = 0
		return
	}
	c.dirty = false
	c.elapsedSinceEdit = 0
}

// autoSubmit runs at most once per controller; the submitting flag guards
// against overlapping ticks while the submit call is in flight. The server's
// own idempotence backstops anything this guard misses.
func (c *Controller) autoSubmit() {
	if c.submitted || c.submitting {
		return
	}
	c.submitting = true

	// Best effort: push the last pending answer before the submit.
	c.saveNow()

	if c.callbacks.Submit != nil {
		if err := c.callbacks.Submit("auto"); err != nil {
			// Leave submitted unset so a later tick can retry; the server
			// rejects duplicates either way.
			c.submitting = false
			return
		}
	}
	c.submitting = false
	c.submitted = true
}

// Remaining reports the current countdown value. Only meaningful from the Run
// goroutine or after Run has returned.
func (c *Controller) Remaining() time.Duration {
	return c.remaining
}

// Submitted reports whether the auto-submit completed.
func (c *Controller) Submitted() bool {
	return c.submitted
}
