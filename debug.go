package vista

import "time"

// debugLogTransition prints one line per completed transition. Only called
// when the controller is in debug mode.
func (c *Controller) debugLogTransition(ev TransitionEvent, frames int) {
	elapsed := time.Duration(ev.Elapsed * float64(time.Second))
	c.log.Printf("transition %d->%d (%s) done | elapsed: %v | frames: %d | active: %d",
		ev.From, ev.To, ev.Direction, elapsed.Round(time.Millisecond), frames, c.active)
}

// debugMaxFrameDelta is the per-frame dt above which the host warns that
// the animation is being sampled too coarsely.
const debugMaxFrameDelta = 0.1

func (h *Host) debugCheckFrameDelta(dt float32) {
	if dt > debugMaxFrameDelta {
		h.log.Printf("warning: frame delta %.3fs exceeds %.3fs", dt, debugMaxFrameDelta)
	}
}
