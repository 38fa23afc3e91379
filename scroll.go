package vista

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

const (
	defaultLineHeight = 40
	scrollFrequency   = 8.0
	scrollDamping     = 1.0 // critically damped: no overshoot past the page edge
	scrollSnap        = 0.5
)

// ScrollInput turns wheel and key input into a vertical page offset in
// pixels, the way a browser page scrolls. The offset eases toward its
// target on a spring; it is reported raw to the Controller every tick,
// with no debouncing.
type ScrollInput struct {
	// LineHeight is the distance in pixels of one wheel notch.
	LineHeight float64
	// Smooth enables spring easing; when false the offset jumps.
	Smooth bool

	max    float64
	target float64
	pos    float64
	vel    float64
	spring harmonica.Spring
}

// NewScrollInput creates an adapter for a page that can scroll maxOffset
// pixels, updated tps times per second.
func NewScrollInput(maxOffset float64, tps int) *ScrollInput {
	if tps <= 0 {
		tps = 60
	}
	return &ScrollInput{
		LineHeight: defaultLineHeight,
		Smooth:     true,
		max:        math.Max(maxOffset, 0),
		spring:     harmonica.NewSpring(harmonica.FPS(tps), scrollFrequency, scrollDamping),
	}
}

// SetMaxOffset changes the scrollable range, clamping the current target.
func (s *ScrollInput) SetMaxOffset(maxOffset float64) {
	s.max = math.Max(maxOffset, 0)
	s.target = s.clamp(s.target)
}

// MaxOffset returns the scrollable range in pixels.
func (s *ScrollInput) MaxOffset() float64 {
	return s.max
}

// Wheel applies an ebiten wheel delta. Positive dy scrolls up, toward the
// top of the page.
func (s *ScrollInput) Wheel(dy float64) {
	if dy == 0 {
		return
	}
	s.ScrollBy(-dy * s.LineHeight)
}

// ScrollBy moves the target offset by px (positive scrolls down).
func (s *ScrollInput) ScrollBy(px float64) {
	s.target = s.clamp(s.target + px)
}

// ScrollTo sets the target offset.
func (s *ScrollInput) ScrollTo(px float64) {
	s.target = s.clamp(px)
}

// Jump sets the offset and target immediately, skipping the spring.
func (s *ScrollInput) Jump(px float64) {
	s.target = s.clamp(px)
	s.pos = s.target
	s.vel = 0
}

// Update advances the spring one tick and returns the offset.
func (s *ScrollInput) Update() float64 {
	if !s.Smooth {
		s.pos, s.vel = s.target, 0
		return s.pos
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.pos-s.target) < scrollSnap && math.Abs(s.vel) < scrollSnap {
		s.pos, s.vel = s.target, 0
	}
	s.pos = s.clamp(s.pos)
	return s.pos
}

// Offset returns the current page offset in pixels.
func (s *ScrollInput) Offset() float64 {
	return s.pos
}

// Target returns the offset the spring is moving toward.
func (s *ScrollInput) Target() float64 {
	return s.target
}

func (s *ScrollInput) clamp(v float64) float64 {
	return math.Max(0, math.Min(v, s.max))
}
