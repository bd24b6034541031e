// Package playback drives the public viewing of a tour: the step cursor,
// the autoplay dwell timer, and the fullscreen/annotation-visibility flags.
package playback

import (
	"sync"
	"time"
)

// DefaultDwell is how long autoplay stays on a step before advancing.
const DefaultDwell = 4 * time.Second

// Controller is the playback state machine for one loaded tour. All methods
// are safe for concurrent use. A controller that is no longer needed must be
// closed, otherwise a pending dwell timer leaks.
type Controller struct {
	mu                 sync.Mutex
	stepCount          int
	cursor             int
	playing            bool
	fullscreen         bool
	annotationsVisible bool
	dwell              time.Duration
	timer              *time.Timer
	closed             bool
}

// New creates a controller over a tour with the given number of steps, in the
// initial state: first step, paused, windowed, annotations shown.
func New(stepCount int) *Controller {
	return NewWithDwell(stepCount, DefaultDwell)
}

// NewWithDwell creates a controller with a custom dwell interval.
func NewWithDwell(stepCount int, dwell time.Duration) *Controller {
	return &Controller{
		stepCount:          stepCount,
		annotationsVisible: true,
		dwell:              dwell,
	}
}

// Cursor returns the active step index. It is meaningless when the tour has
// no steps.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Playing reports whether autoplay is running.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Fullscreen reports the fullscreen flag.
func (c *Controller) Fullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullscreen
}

// AnnotationsVisible reports the annotation-visibility flag.
func (c *Controller) AnnotationsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.annotationsVisible
}

// Next advances the cursor by one, stopping at the last step. While autoplay
// is running the dwell restarts from the new position; autoplay itself keeps
// going until a timer tick lands on the last step.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor < c.stepCount-1 {
		c.cursor++
	}
	if c.playing {
		c.schedule()
	}
}

// Prev moves the cursor back by one, stopping at the first step.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor > 0 {
		c.cursor--
	}
	if c.playing {
		c.schedule()
	}
}

// TogglePlay starts or stops autoplay. Stopping cancels the pending dwell
// timer; no tick fires after this returns with playing false.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.playing = !c.playing
	if c.playing {
		c.schedule()
	} else {
		c.cancelTimer()
	}
}

// ToggleFullscreen flips the fullscreen flag. Independent of the cursor and
// autoplay.
func (c *Controller) ToggleFullscreen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullscreen = !c.fullscreen
}

// ToggleAnnotationsVisible flips the annotation-visibility flag.
func (c *Controller) ToggleAnnotationsVisible() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.annotationsVisible = !c.annotationsVisible
}

// Close cancels any pending dwell timer and makes the controller inert. Safe
// to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimer()
	c.playing = false
	c.closed = true
}

// schedule arms the dwell timer, replacing any pending one so at most one
// timer is ever active. Callers must hold c.mu.
func (c *Controller) schedule() {
	c.cancelTimer()
	if c.closed || c.stepCount == 0 {
		return
	}
	c.timer = time.AfterFunc(c.dwell, c.tick)
}

// cancelTimer stops the pending dwell timer. Callers must hold c.mu. A tick
// already in flight bails out on the playing check in tick.
func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// tick is one autoplay advance. Landing on the last step forces playing off;
// autoplay halts at the end rather than looping.
func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || c.closed {
		return
	}
	if c.cursor < c.stepCount-1 {
		c.cursor++
	}
	if c.cursor >= c.stepCount-1 {
		c.playing = false
		c.timer = nil
		return
	}
	c.schedule()
}
