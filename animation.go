package vista

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// positionTween animates a camera position between two points, one gween
// tween per axis. Call update(dt) each frame; done is set once every axis
// has reached its end value.
type positionTween struct {
	tweens   [3]*gween.Tween
	from, to mgl64.Vec3
	duration float32
	elapsed  float32
	done     bool
}

func newPositionTween(from, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *positionTween {
	t := &positionTween{from: from, to: to, duration: duration}
	for i := 0; i < 3; i++ {
		t.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
	}
	return t
}

// update advances all axes by dt seconds and returns the current position.
// Once done, the exact end position is returned so float32 drift never
// leaves the camera short of its target.
func (t *positionTween) update(dt float32) mgl64.Vec3 {
	if t.done {
		return t.to
	}
	// Negative, NaN and zero steps leave the clock where it is.
	if !(dt > 0) {
		dt = 0
	}
	t.elapsed += dt
	var pos mgl64.Vec3
	allDone := true
	for i := 0; i < 3; i++ {
		val, finished := t.tweens[i].Update(dt)
		pos[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	if allDone {
		t.done = true
		return t.to
	}
	return pos
}

// progress returns elapsed/duration clamped to [0, 1]. It is exactly 1
// only after done is set.
func (t *positionTween) progress() float64 {
	if t.done {
		return 1
	}
	p := float64(t.elapsed) / float64(t.duration)
	if p >= 1 {
		// Only done reports a full 1.
		return 1 - 1e-9
	}
	if p < 0 {
		return 0
	}
	return p
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
	"in-out-expo":  ease.InOutExpo,
	"out-back":     ease.OutBack,
	"out-bounce":   ease.OutBounce,
	"out-elastic":  ease.OutElastic,
}

// DefaultEasing is the easing used when none is configured.
const DefaultEasing = "out-quad"

// LookupEasing returns the easing function registered under name
// (case-insensitive). An empty name returns the default easing.
func LookupEasing(name string) (ease.TweenFunc, error) {
	if name == "" {
		name = DefaultEasing
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown easing %q (known: %s)",
			ErrConfiguration, name, strings.Join(EasingNames(), ", "))
	}
	return fn, nil
}

// EasingNames returns the registered easing names in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
