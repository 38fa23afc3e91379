package vista

import (
	"log"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

const (
	defaultScrollThreshold    = 10
	defaultTransitionDuration = 2
	defaultGuardMaxPosition   = 10
)

// BackwardGuard restricts backward transitions to scroll positions near the
// top of the page. With Enabled false, any upward scroll past the threshold
// may step backward.
type BackwardGuard struct {
	Enabled bool
	// MaxPosition is the largest scroll position (inclusive) at which a
	// backward transition is still allowed.
	MaxPosition float64
}

func (g BackwardGuard) allows(pos float64) bool {
	return !g.Enabled || pos <= g.MaxPosition
}

// ControllerConfig holds the tunables of a Controller. Start from
// DefaultControllerConfig and override fields as needed.
type ControllerConfig struct {
	// Threshold is the scroll delta (exclusive) below which scroll events
	// are treated as jitter and ignored.
	Threshold float64
	// Duration is the transition length in seconds.
	Duration float32
	// Easing names a registered easing function; see EasingNames.
	Easing string
	// FocalPoint is the fixed world point the camera looks at every frame.
	// Nil uses the LookAt of the starting viewpoint.
	FocalPoint *mgl64.Vec3
	// BackwardGuard gates backward transitions on scroll position.
	BackwardGuard BackwardGuard
	// ViewportWidth and ViewportHeight seed the camera aspect ratio.
	ViewportWidth, ViewportHeight int
	// Logger receives callback failures and debug output. Nil logs to
	// stderr with a "[vista] " prefix.
	Logger *log.Logger
}

// DefaultControllerConfig returns the configuration the showcase page ships
// with: a 10px threshold, 2 second transitions, and backward steps only
// within 10px of the top.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Threshold: defaultScrollThreshold,
		Duration:  defaultTransitionDuration,
		Easing:    DefaultEasing,
		BackwardGuard: BackwardGuard{
			Enabled:     true,
			MaxPosition: defaultGuardMaxPosition,
		},
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

// ScrollState is the controller's view of page scrolling.
type ScrollState struct {
	LastPosition float64
	Threshold    float64
}

// Controller maps scroll input to a finite sequence of viewpoints and
// animates the active camera between them.
//
// It has two states. Idle: no target, camera resting on the active
// viewpoint. Transitioning: a target is set and Update advances the tween.
// Requests arriving while transitioning are dropped, not queued, and a
// running transition cannot be cancelled or reversed.
//
// A Controller is driven from a single goroutine (the render loop); it is
// not safe for concurrent use.
type Controller struct {
	cfg    ControllerConfig
	easeFn ease.TweenFunc
	log    *log.Logger

	camera      *PerspectiveCamera
	viewpoints  []Viewpoint
	focal       mgl64.Vec3
	initialized bool

	active    int
	target    int // -1 while idle
	from      int
	direction Direction
	progress  float64
	tween     *positionTween
	frames    int

	scroll ScrollState

	callbacks *callbackRegistry
	sink      EventSink
	debug     bool
}

// NewController creates an uninitialized controller. Call Initialize with
// the discovered viewpoints before feeding it scroll events.
func NewController(cfg ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[vista] ", 0)
	}
	return &Controller{
		cfg:       cfg,
		log:       logger,
		camera:    newCamera(cfg.ViewportWidth, cfg.ViewportHeight),
		target:    -1,
		callbacks: &callbackRegistry{},
	}
}

// Initialize installs the viewpoint sequence and places the camera on
// viewpoints[startIndex]. It fails with ErrConfiguration when viewpoints is
// empty, startIndex is out of range, or the controller config is invalid.
// Initialize may be called again after Teardown.
func (c *Controller) Initialize(viewpoints []Viewpoint, startIndex int) error {
	if len(viewpoints) == 0 {
		return configErrorf("no viewpoints")
	}
	if startIndex < 0 || startIndex >= len(viewpoints) {
		return configErrorf("start index %d out of range [0, %d)", startIndex, len(viewpoints))
	}
	if c.cfg.Threshold < 0 || math.IsNaN(c.cfg.Threshold) {
		return configErrorf("threshold %v must be >= 0", c.cfg.Threshold)
	}
	if !(c.cfg.Duration > 0) {
		return configErrorf("duration %v must be > 0", c.cfg.Duration)
	}
	if c.cfg.BackwardGuard.Enabled && c.cfg.BackwardGuard.MaxPosition < 0 {
		return configErrorf("backward guard bound %v must be >= 0", c.cfg.BackwardGuard.MaxPosition)
	}
	fn, err := LookupEasing(c.cfg.Easing)
	if err != nil {
		return err
	}

	c.easeFn = fn
	c.viewpoints = append([]Viewpoint(nil), viewpoints...)
	c.active = startIndex
	c.target = -1
	c.progress = 0
	c.tween = nil
	c.scroll = ScrollState{Threshold: c.cfg.Threshold}

	start := c.viewpoints[startIndex]
	c.focal = start.LookAt
	if c.cfg.FocalPoint != nil {
		c.focal = *c.cfg.FocalPoint
	}
	c.camera.Position = start.Position
	c.camera.LookAt = c.focal
	if start.FieldOfView > 0 {
		c.camera.FieldOfView = start.FieldOfView
	}
	c.camera.MarkDirty()
	c.initialized = true
	return nil
}

// Teardown drops the viewpoints, any in-flight transition, and every
// registered completion callback. The controller must be re-initialized
// before use.
func (c *Controller) Teardown() {
	c.viewpoints = nil
	c.initialized = false
	c.tween = nil
	c.target = -1
	c.active = 0
	c.progress = 0
	// Handles from before Teardown keep pointing at the discarded registry.
	c.callbacks = &callbackRegistry{}
	c.scroll = ScrollState{}
}

// OnScroll feeds the current vertical scroll offset. Deltas whose magnitude
// does not exceed the threshold are ignored outright. Otherwise a downward
// scroll steps forward when a next viewpoint exists, and an upward scroll
// steps backward when a previous viewpoint exists and the backward guard
// allows the position. The last position is updated whenever the threshold
// is exceeded, whether or not a transition began. Reports whether a
// transition began.
func (c *Controller) OnScroll(pos float64) bool {
	if !c.initialized || math.IsNaN(pos) || math.IsInf(pos, 0) {
		return false
	}
	delta := pos - c.scroll.LastPosition
	if math.Abs(delta) <= c.scroll.Threshold {
		return false
	}
	c.scroll.LastPosition = pos

	if c.target >= 0 {
		if c.debug {
			c.log.Printf("scroll to %.1f ignored: transition %d->%d in flight", pos, c.from, c.target)
		}
		return false
	}

	switch {
	case delta > 0 && c.active < len(c.viewpoints)-1:
		return c.BeginTransition(c.active+1, Forward) == nil
	case delta < 0 && c.active > 0 && c.cfg.BackwardGuard.allows(pos):
		return c.BeginTransition(c.active-1, Backward) == nil
	}
	return false
}

// BeginTransition starts animating the camera from the active viewpoint to
// viewpoints[targetIndex]. Only position is tweened; the field of view
// snaps to the target's at the start and the camera keeps facing the fixed
// focal point. Returns an *InvalidViewpointError for an unknown index and
// ErrTransitionInFlight while another transition runs.
func (c *Controller) BeginTransition(targetIndex int, dir Direction) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if targetIndex < 0 || targetIndex >= len(c.viewpoints) {
		return &InvalidViewpointError{Index: targetIndex, Count: len(c.viewpoints)}
	}
	if c.target >= 0 {
		return ErrTransitionInFlight
	}

	to := c.viewpoints[targetIndex]
	c.from = c.active
	c.target = targetIndex
	c.direction = dir
	c.progress = 0
	c.frames = 0
	c.tween = newPositionTween(c.viewpoints[c.active].Position, to.Position, c.cfg.Duration, c.easeFn)

	if to.FieldOfView > 0 {
		c.camera.FieldOfView = to.FieldOfView
	}
	c.camera.MarkDirty()

	if c.debug {
		c.log.Printf("transition %d->%d (%s) started", c.from, c.target, dir)
	}
	return nil
}

// Update advances the in-flight transition by dt seconds. It is the single
// per-frame step of the controller. When the tween finishes the controller
// commits the target as active, returns to idle, and only then runs the
// completion callbacks registered for that (from, to) pair. Frame deltas
// that are not positive and finite are skipped.
func (c *Controller) Update(dt float32) {
	if c.tween == nil || !(dt > 0) || math.IsInf(float64(dt), 0) {
		return
	}
	c.frames++
	c.camera.Position = c.tween.update(dt)
	c.camera.LookAt = c.focal
	c.camera.MarkDirty()
	if p := c.tween.progress(); p > c.progress {
		c.progress = p
	}
	if c.tween.done {
		c.complete()
	}
}

func (c *Controller) complete() {
	ev := TransitionEvent{
		From:      c.from,
		To:        c.target,
		Direction: c.direction,
		Elapsed:   float64(c.tween.elapsed),
	}
	frames := c.frames

	c.active = c.target
	c.target = -1
	c.tween = nil
	c.progress = 1

	for _, h := range c.callbacks.matching(ev.From, ev.To) {
		c.invoke(h)
	}
	if c.sink != nil {
		c.sink.EmitTransition(ev)
	}
	if c.debug {
		c.debugLogTransition(ev, frames)
	}
}

// invoke runs a completion callback, recovering and logging a panic so a
// faulty callback cannot take down the render loop.
func (c *Controller) invoke(h completionHandler) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("completion callback %d->%d failed: %v", h.from, h.to, r)
		}
	}()
	h.fn()
}

// Resize recomputes the active camera's aspect ratio. Safe mid-transition:
// progress and the active index are untouched.
func (c *Controller) Resize(width, height int) {
	c.camera.SetViewport(width, height)
}

// ActiveCameraPose returns the pose the render loop should draw this frame.
func (c *Controller) ActiveCameraPose() CameraPose {
	return c.camera.Pose()
}

// Camera returns the controller's active camera.
func (c *Controller) Camera() *PerspectiveCamera {
	return c.camera
}

// Viewpoints returns the installed viewpoint sequence. The returned slice
// MUST NOT be mutated.
func (c *Controller) Viewpoints() []Viewpoint {
	return c.viewpoints
}

// ActiveIndex returns the index of the viewpoint the camera rests on, or
// last rested on if a transition is in flight.
func (c *Controller) ActiveIndex() int {
	return c.active
}

// TargetIndex returns the in-flight target; ok is false while idle.
func (c *Controller) TargetIndex() (index int, ok bool) {
	return c.target, c.target >= 0
}

// Transitioning reports whether a transition is in flight.
func (c *Controller) Transitioning() bool {
	return c.target >= 0
}

// Progress returns the in-flight transition's progress in [0, 1].
func (c *Controller) Progress() float64 {
	return c.progress
}

// Direction returns the direction of the current or most recent transition.
func (c *Controller) Direction() Direction {
	return c.direction
}

// Scroll returns a copy of the scroll state.
func (c *Controller) Scroll() ScrollState {
	return c.scroll
}

// LastScrollPosition returns the last scroll offset that exceeded the
// threshold.
func (c *Controller) LastScrollPosition() float64 {
	return c.scroll.LastPosition
}

// Initialized reports whether Initialize has succeeded since the last
// Teardown.
func (c *Controller) Initialized() bool {
	return c.initialized
}

// SetEventSink sets the optional ECS bridge.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sink = sink
}

// SetDebugMode enables or disables debug logging of transitions and
// dropped scroll requests.
func (c *Controller) SetDebugMode(enabled bool) {
	c.debug = enabled
}

// --- Completion callbacks ---

type completionHandler struct {
	id       uint32
	from, to int
	fn       func()
}

type callbackRegistry struct {
	handlers []completionHandler
	nextID   uint32
}

// matching returns a copy of the handlers for (from, to) in registration
// order, so callbacks may register or remove handlers while running.
func (r *callbackRegistry) matching(from, to int) []completionHandler {
	var out []completionHandler
	for _, h := range r.handlers {
		if h.from == from && h.to == to {
			out = append(out, h)
		}
	}
	return out
}

// CallbackHandle allows removing a registered completion callback.
type CallbackHandle struct {
	id  uint32
	reg *callbackRegistry
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	s := h.reg.handlers
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = completionHandler{}
			h.reg.handlers = s[:len(s)-1]
			return
		}
	}
}

// OnComplete registers fn to run once each time a transition from viewpoint
// from to viewpoint to completes. Callbacks run synchronously, in
// registration order, after the controller is back to idle.
func (c *Controller) OnComplete(from, to int, fn func()) CallbackHandle {
	c.callbacks.nextID++
	id := c.callbacks.nextID
	c.callbacks.handlers = append(c.callbacks.handlers, completionHandler{
		id: id, from: from, to: to, fn: fn,
	})
	return CallbackHandle{id: id, reg: c.callbacks}
}
