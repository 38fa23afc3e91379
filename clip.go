package vista

import "math"

// TextureMapping places a video on its surface: Repeat scales the texture
// (larger values shrink the video) and Offset shifts it.
type TextureMapping struct {
	Repeat [2]float64 `yaml:"repeat"`
	Offset [2]float64 `yaml:"offset"`
}

// Clip is a frame-clock video player. It tracks a playhead over a fixed
// duration; the Host advances it with Update and draws the surface from
// Fraction. Clip implements VideoPlayer.
type Clip struct {
	Duration float64
	Loop     bool
	Mapping  TextureMapping

	position float64
	playing  bool
	ended    bool
	plays    int
	onEnded  func()
}

// NewClip creates a paused clip at its first frame.
func NewClip(duration float64, loop bool) *Clip {
	return &Clip{Duration: duration, Loop: loop}
}

// Play starts or resumes playback. Playing an ended clip restarts it from
// the first frame.
func (c *Clip) Play() {
	if c.playing {
		return
	}
	if c.ended {
		c.position = 0
		c.ended = false
	}
	c.playing = true
	c.plays++
}

// Pause stops the playhead where it is.
func (c *Clip) Pause() {
	c.playing = false
}

// SeekEnd moves the playhead to the last frame.
func (c *Clip) SeekEnd() {
	c.position = c.Duration
}

// Playing reports whether the playhead is advancing.
func (c *Clip) Playing() bool {
	return c.playing
}

// OnEnded sets the callback fired when a non-looping clip reaches its end.
func (c *Clip) OnEnded(fn func()) {
	c.onEnded = fn
}

// Update advances the playhead by dt seconds.
func (c *Clip) Update(dt float64) {
	if !c.playing || dt <= 0 {
		return
	}
	c.position += dt
	if c.position < c.Duration {
		return
	}
	if c.Loop && c.Duration > 0 {
		c.position = math.Mod(c.position, c.Duration)
		return
	}
	c.position = c.Duration
	c.playing = false
	c.ended = true
	if c.onEnded != nil {
		c.onEnded()
	}
}

// Position returns the playhead in seconds.
func (c *Clip) Position() float64 {
	return c.position
}

// Fraction returns the playhead as a fraction of the duration in [0, 1].
func (c *Clip) Fraction() float64 {
	if c.Duration <= 0 {
		return 0
	}
	return math.Min(c.position/c.Duration, 1)
}

// Ended reports whether a non-looping clip has played to its end.
func (c *Clip) Ended() bool {
	return c.ended
}

// Plays returns how many times playback was started.
func (c *Clip) Plays() int {
	return c.plays
}
