package vista

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// testViewpoints returns n viewpoints spaced along +X, all looking at the
// origin, with fields of view 20, 21, 22...
func testViewpoints(n int) []Viewpoint {
	vps := make([]Viewpoint, n)
	for i := range vps {
		vps[i] = Viewpoint{
			Name:        string(rune('A' + i)),
			Position:    mgl64.Vec3{float64(i), 1, 5},
			FieldOfView: float64(20 + i),
		}
	}
	return vps
}

func newTestController(t *testing.T, n, start int) (*Controller, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultControllerConfig()
	cfg.Logger = log.New(&buf, "", 0)
	c := NewController(cfg)
	if err := c.Initialize(testViewpoints(n), start); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c, &buf
}

// runFor steps the controller by dt until total simulated seconds elapse.
func runFor(c *Controller, total, dt float32) {
	for elapsed := float32(0); elapsed < total; elapsed += dt {
		c.Update(dt)
	}
}

// --- Initialize / Teardown ---

func TestInitializePlacesCameraOnStart(t *testing.T) {
	c, _ := newTestController(t, 3, 1)
	if c.ActiveIndex() != 1 {
		t.Errorf("ActiveIndex = %d, want 1", c.ActiveIndex())
	}
	if _, ok := c.TargetIndex(); ok {
		t.Error("TargetIndex set after Initialize, want idle")
	}
	pose := c.ActiveCameraPose()
	if pose.Position != c.Viewpoints()[1].Position {
		t.Errorf("camera at %v, want start viewpoint %v", pose.Position, c.Viewpoints()[1].Position)
	}
	if pose.FieldOfView != 21 {
		t.Errorf("FieldOfView = %f, want 21", pose.FieldOfView)
	}
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*ControllerConfig)
		n     int
		start int
	}{
		{"no viewpoints", nil, 0, 0},
		{"start negative", nil, 2, -1},
		{"start past end", nil, 2, 2},
		{"negative threshold", func(c *ControllerConfig) { c.Threshold = -1 }, 2, 0},
		{"NaN threshold", func(c *ControllerConfig) { c.Threshold = math.NaN() }, 2, 0},
		{"zero duration", func(c *ControllerConfig) { c.Duration = 0 }, 2, 0},
		{"negative guard", func(c *ControllerConfig) { c.BackwardGuard.MaxPosition = -1 }, 2, 0},
		{"unknown easing", func(c *ControllerConfig) { c.Easing = "wobble" }, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultControllerConfig()
			cfg.Logger = log.New(&bytes.Buffer{}, "", 0)
			if tt.mut != nil {
				tt.mut(&cfg)
			}
			c := NewController(cfg)
			err := c.Initialize(testViewpoints(tt.n), tt.start)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Initialize = %v, want ErrConfiguration", err)
			}
			if c.Initialized() {
				t.Error("Initialized = true after failed Initialize")
			}
		})
	}
}

func TestFocalPointDefaultsToStartLookAt(t *testing.T) {
	vps := testViewpoints(2)
	vps[1].LookAt = mgl64.Vec3{-0.5, 0.1, 0}
	c := NewController(DefaultControllerConfig())
	if err := c.Initialize(vps, 1); err != nil {
		t.Fatal(err)
	}
	if c.ActiveCameraPose().LookAt != vps[1].LookAt {
		t.Errorf("LookAt = %v, want %v", c.ActiveCameraPose().LookAt, vps[1].LookAt)
	}
}

func TestFocalPointHeldDuringTransition(t *testing.T) {
	focal := mgl64.Vec3{-0.545640230178833, 0.1285281628370285, -0.0006271898746490479}
	cfg := DefaultControllerConfig()
	cfg.FocalPoint = &focal
	c := NewController(cfg)
	vps := testViewpoints(2)
	vps[0].LookAt = mgl64.Vec3{9, 9, 9}
	if err := c.Initialize(vps, 0); err != nil {
		t.Fatal(err)
	}
	c.OnScroll(11)
	for i := 0; i < 8; i++ {
		c.Update(0.25)
		if got := c.ActiveCameraPose().LookAt; got != focal {
			t.Fatalf("frame %d LookAt = %v, want focal %v", i, got, focal)
		}
	}
}

func TestTeardown(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	fired := 0
	c.OnComplete(0, 1, func() { fired++ })
	c.OnScroll(11)
	c.Teardown()

	if c.Initialized() || c.Transitioning() || len(c.Viewpoints()) != 0 {
		t.Errorf("after Teardown: initialized=%v transitioning=%v viewpoints=%d",
			c.Initialized(), c.Transitioning(), len(c.Viewpoints()))
	}
	if c.OnScroll(100) {
		t.Error("OnScroll began a transition after Teardown")
	}
	if err := c.BeginTransition(1, Forward); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("BeginTransition after Teardown = %v, want ErrNotInitialized", err)
	}

	// Re-initialize: old callbacks are gone.
	if err := c.Initialize(testViewpoints(2), 0); err != nil {
		t.Fatal(err)
	}
	c.OnScroll(11)
	runFor(c, 2, 0.25)
	if fired != 0 {
		t.Errorf("callback registered before Teardown fired %d times", fired)
	}
}

func TestHandleFromBeforeTeardownRemovesNothing(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	stale := c.OnComplete(0, 1, func() {})
	c.Teardown()
	if err := c.Initialize(testViewpoints(2), 0); err != nil {
		t.Fatal(err)
	}

	fired := 0
	c.OnComplete(0, 1, func() { fired++ })
	stale.Remove()

	c.OnScroll(11)
	runFor(c, 2.5, 0.25)
	if fired != 1 {
		t.Errorf("callback registered after Initialize fired %d times, want 1", fired)
	}
}

// --- OnScroll ---

func TestScrollBelowThresholdIsNoop(t *testing.T) {
	for _, d := range []float64{0, 1, 5, 9.999, 10, -10, -3} {
		c, _ := newTestController(t, 3, 1)
		c.OnScroll(100) // forward begins; let it finish
		runFor(c, 2, 0.25)
		before := c.Scroll()
		active := c.ActiveIndex()

		if c.OnScroll(before.LastPosition + d) {
			t.Errorf("delta %f began a transition", d)
		}
		if c.Scroll() != before {
			t.Errorf("delta %f: scroll state = %+v, want unchanged %+v", d, c.Scroll(), before)
		}
		if c.ActiveIndex() != active || c.Transitioning() {
			t.Errorf("delta %f changed controller state", d)
		}
	}
}

func TestScrollUpdatesLastPositionPastThreshold(t *testing.T) {
	c, _ := newTestController(t, 2, 1) // at last index: forward is a no-op
	if c.OnScroll(50) {
		t.Error("forward from last index began a transition")
	}
	if c.LastScrollPosition() != 50 {
		t.Errorf("LastPosition = %f, want 50", c.Scroll().LastPosition)
	}
}

func TestScrollRejectsNaNAndInf(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if c.OnScroll(v) {
			t.Errorf("OnScroll(%f) began a transition", v)
		}
	}
	if c.Scroll().LastPosition != 0 {
		t.Errorf("LastPosition = %f, want 0", c.Scroll().LastPosition)
	}
}

func TestForwardAtLastIndexIsNoop(t *testing.T) {
	c, _ := newTestController(t, 3, 2)
	if c.OnScroll(500) {
		t.Error("forward from last index began a transition")
	}
	if c.Transitioning() {
		t.Error("transitioning after no-op")
	}
}

func TestBackwardAtFirstIndexIsNoop(t *testing.T) {
	c, _ := newTestController(t, 3, 0)
	if c.OnScroll(-20) {
		t.Error("backward from index 0 began a transition")
	}

	// Round trip back to 0, then try again.
	c.OnScroll(20)
	runFor(c, 2, 0.25)
	c.OnScroll(0)
	runFor(c, 2, 0.25)
	if c.ActiveIndex() != 0 {
		t.Fatalf("ActiveIndex = %d, want 0", c.ActiveIndex())
	}
	if c.OnScroll(-20) {
		t.Error("backward from index 0 began a transition after round trip")
	}
}

func TestBackwardGuardBand(t *testing.T) {
	c, _ := newTestController(t, 2, 1)
	c.OnScroll(500)

	// Upward past the threshold but far from the top: blocked.
	if c.OnScroll(300) {
		t.Error("backward at position 300 began a transition, want blocked by guard")
	}
	if c.Scroll().LastPosition != 300 {
		t.Errorf("LastPosition = %f, want 300", c.Scroll().LastPosition)
	}
	// Inside the band (inclusive bound): allowed.
	if !c.OnScroll(10) {
		t.Error("backward at position 10 did not begin a transition")
	}
	if target, _ := c.TargetIndex(); target != 0 || c.Direction() != Backward {
		t.Errorf("target = %d dir = %s, want 0 backward", target, c.Direction())
	}
}

func TestBackwardGuardDisabled(t *testing.T) {
	cfg := DefaultControllerConfig()
	cfg.BackwardGuard.Enabled = false
	c := NewController(cfg)
	if err := c.Initialize(testViewpoints(2), 1); err != nil {
		t.Fatal(err)
	}
	c.OnScroll(500)
	if !c.OnScroll(300) {
		t.Error("backward at position 300 blocked with guard disabled")
	}
}

// --- Transitions ---

func TestTwoViewpointScenario(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	fx := NewSideEffects(log.New(&bytes.Buffer{}, "", 0))
	reveal, hide := 0, 0
	c.OnComplete(0, 1, func() { fx.Once("reveal", func() { reveal++ }) })
	c.OnComplete(1, 0, func() { hide++ })

	// Down by threshold+1: A -> B.
	if !c.OnScroll(11) {
		t.Fatal("scroll down did not begin a transition")
	}
	if target, ok := c.TargetIndex(); !ok || target != 1 {
		t.Fatalf("TargetIndex = %d,%v want 1,true", target, ok)
	}
	runFor(c, 2, 0.25)
	if c.ActiveIndex() != 1 || c.Transitioning() {
		t.Fatalf("after transition: active=%d transitioning=%v", c.ActiveIndex(), c.Transitioning())
	}
	if reveal != 1 {
		t.Errorf("reveal fired %d times, want 1", reveal)
	}

	// Down again: no index 2.
	if c.OnScroll(40) {
		t.Error("scroll down at last index began a transition")
	}

	// Up to the top: B -> A.
	if !c.OnScroll(0) {
		t.Fatal("scroll up near top did not begin a transition")
	}
	runFor(c, 2, 0.25)
	if c.ActiveIndex() != 0 {
		t.Fatalf("ActiveIndex = %d, want 0", c.ActiveIndex())
	}
	if hide != 1 {
		t.Errorf("hide fired %d times, want 1", hide)
	}

	// Up again at A: no-op.
	if c.OnScroll(-20) {
		t.Error("scroll up at index 0 began a transition")
	}
	if hide != 1 || reveal != 1 {
		t.Errorf("callbacks refired: reveal=%d hide=%d", reveal, hide)
	}
}

func TestStraddlingThresholdProducesOneTransition(t *testing.T) {
	c, _ := newTestController(t, 3, 0)
	transitions := 0
	c.OnComplete(0, 1, func() { transitions++ })
	c.OnComplete(1, 2, func() { transitions++ })

	if c.OnScroll(9) {
		t.Error("threshold-1 began a transition")
	}
	if !c.OnScroll(12) {
		t.Error("threshold+2 cumulative did not begin a transition")
	}
	runFor(c, 4, 0.25)
	if transitions != 1 {
		t.Errorf("transitions = %d, want 1", transitions)
	}
	if c.ActiveIndex() != 1 {
		t.Errorf("ActiveIndex = %d, want 1", c.ActiveIndex())
	}
}

func TestRequestsDuringTransitionAreDropped(t *testing.T) {
	c, buf := newTestController(t, 3, 1)
	c.SetDebugMode(true)
	c.OnScroll(11) // 1 -> 2
	c.Update(0.25)

	// Opposite direction, inside the guard band.
	if c.OnScroll(0) {
		t.Error("scroll during transition began another")
	}
	if target, _ := c.TargetIndex(); target != 2 {
		t.Errorf("TargetIndex = %d, want 2", target)
	}
	if !strings.Contains(buf.String(), "ignored") {
		t.Errorf("debug log = %q, want dropped request logged", buf.String())
	}

	runFor(c, 2, 0.25)
	if c.ActiveIndex() != 2 {
		t.Errorf("ActiveIndex = %d, want 2", c.ActiveIndex())
	}
	if c.Transitioning() {
		t.Error("dropped request was queued")
	}
}

func TestBeginTransitionErrors(t *testing.T) {
	c, _ := newTestController(t, 2, 0)

	err := c.BeginTransition(5, Forward)
	var ive *InvalidViewpointError
	if !errors.As(err, &ive) || ive.Index != 5 || ive.Count != 2 {
		t.Errorf("BeginTransition(5) = %v, want InvalidViewpointError{5, 2}", err)
	}
	if !errors.Is(err, ErrInvalidViewpoint) {
		t.Errorf("errors.Is(%v, ErrInvalidViewpoint) = false", err)
	}
	if c.Transitioning() {
		t.Error("invalid target began a transition")
	}

	if err := c.BeginTransition(1, Forward); err != nil {
		t.Fatal(err)
	}
	if err := c.BeginTransition(0, Backward); !errors.Is(err, ErrTransitionInFlight) {
		t.Errorf("second BeginTransition = %v, want ErrTransitionInFlight", err)
	}

	uninit := NewController(DefaultControllerConfig())
	if err := uninit.BeginTransition(0, Forward); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("BeginTransition before Initialize = %v, want ErrNotInitialized", err)
	}
}

func TestFieldOfViewSnapsAtStart(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	c.OnScroll(11)
	if fov := c.ActiveCameraPose().FieldOfView; fov != 21 {
		t.Errorf("FieldOfView = %f at start of transition, want target's 21", fov)
	}
}

func TestProgressMonotonicAndCompletes(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	c.OnScroll(11)
	prev := c.Progress()
	if prev != 0 {
		t.Errorf("initial progress = %f, want 0", prev)
	}
	for i := 0; i < 100 && c.Transitioning(); i++ {
		c.Update(1.0 / 60)
		p := c.Progress()
		if p < prev {
			t.Fatalf("progress decreased: %f -> %f", prev, p)
		}
		if p > 1 {
			t.Fatalf("progress = %f > 1", p)
		}
		if c.Transitioning() && p >= 1 {
			t.Fatalf("progress reached 1 while still transitioning")
		}
		prev = p
	}
	runFor(c, 1, 1.0/60)
	if c.Transitioning() {
		t.Fatal("transition did not finish")
	}
	if c.Progress() != 1 {
		t.Errorf("final progress = %f, want 1", c.Progress())
	}
	if c.ActiveCameraPose().Position != c.Viewpoints()[1].Position {
		t.Errorf("camera at %v, want exactly %v", c.ActiveCameraPose().Position, c.Viewpoints()[1].Position)
	}
}

func TestBadFrameDeltaDoesNotStallTransition(t *testing.T) {
	for _, dt := range []float32{float32(math.NaN()), float32(math.Inf(1)), -1} {
		c, _ := newTestController(t, 2, 0)
		c.OnScroll(11)
		c.Update(dt)
		runFor(c, 2.5, 0.25)
		if c.Transitioning() || c.Progress() != 1 || c.ActiveIndex() != 1 {
			t.Errorf("dt %v: transitioning=%v progress=%f active=%d, want completed at 1",
				dt, c.Transitioning(), c.Progress(), c.ActiveIndex())
		}
	}
}

func TestCameraMovesDuringTransition(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	c.OnScroll(11)
	c.Update(1)
	x := c.ActiveCameraPose().Position.X()
	if x <= 0 || x >= 1 {
		t.Errorf("mid-transition X = %f, want strictly between 0 and 1", x)
	}
}

func TestResizeMidTransition(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	c.OnScroll(11)
	c.Update(0.5)
	progress := c.Progress()

	c.Resize(400, 400)
	if !approxEqual(c.ActiveCameraPose().Aspect, 1, epsilon) {
		t.Errorf("Aspect = %f, want 1", c.ActiveCameraPose().Aspect)
	}
	if c.Progress() != progress || c.ActiveIndex() != 0 || !c.Transitioning() {
		t.Error("Resize disturbed the transition")
	}
	runFor(c, 2, 0.25)
	if c.ActiveIndex() != 1 {
		t.Errorf("ActiveIndex = %d, want 1", c.ActiveIndex())
	}
}

// --- Completion callbacks ---

func TestCallbacksRunAfterIdle(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	var active int
	var transitioning bool
	c.OnComplete(0, 1, func() {
		active = c.ActiveIndex()
		transitioning = c.Transitioning()
	})
	c.OnScroll(11)
	runFor(c, 2, 0.25)
	if active != 1 || transitioning {
		t.Errorf("callback saw active=%d transitioning=%v, want 1 and false", active, transitioning)
	}
}

func TestCallbacksFilterAndOrder(t *testing.T) {
	c, _ := newTestController(t, 3, 0)
	var got []string
	c.OnComplete(0, 1, func() { got = append(got, "a") })
	c.OnComplete(1, 2, func() { got = append(got, "x") })
	c.OnComplete(0, 1, func() { got = append(got, "b") })

	c.OnScroll(11)
	runFor(c, 2, 0.25)
	if strings.Join(got, "") != "ab" {
		t.Errorf("callbacks = %v, want [a b]", got)
	}
}

func TestCallbackRemove(t *testing.T) {
	c, _ := newTestController(t, 2, 0)
	fired := 0
	h := c.OnComplete(0, 1, func() { fired++ })
	h.Remove()
	h.Remove() // second remove is a no-op
	CallbackHandle{}.Remove()

	c.OnScroll(11)
	runFor(c, 2, 0.25)
	if fired != 0 {
		t.Errorf("removed callback fired %d times", fired)
	}
}

func TestPanickingCallbackIsContained(t *testing.T) {
	c, buf := newTestController(t, 2, 0)
	after := 0
	c.OnComplete(0, 1, func() { panic("boom") })
	c.OnComplete(0, 1, func() { after++ })

	c.OnScroll(11)
	runFor(c, 2, 0.25)

	if after != 1 {
		t.Errorf("callback after panicking one fired %d times, want 1", after)
	}
	if c.ActiveIndex() != 1 || c.Transitioning() {
		t.Error("panic left the controller mid-transition")
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("log = %q, want panic logged", buf.String())
	}
	// The controller keeps working.
	if !c.OnScroll(0) {
		t.Error("controller stuck after panicking callback")
	}
}

type recordingSink struct {
	events []TransitionEvent
}

func (s *recordingSink) EmitTransition(ev TransitionEvent) {
	s.events = append(s.events, ev)
}

func TestEventSinkReceivesCompletion(t *testing.T) {
	c, _ := newTestController(t, 2, 1)
	sink := &recordingSink{}
	c.SetEventSink(sink)
	if err := c.BeginTransition(0, Backward); err != nil {
		t.Fatal(err)
	}
	c.Update(0.5)
	if len(sink.events) != 0 {
		t.Fatal("event emitted before completion")
	}
	runFor(c, 1.5, 0.5)
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.From != 1 || ev.To != 0 || ev.Direction != Backward {
		t.Errorf("event = %+v, want 1->0 backward", ev)
	}
	if !approxEqual(ev.Elapsed, 2, 1e-6) {
		t.Errorf("Elapsed = %f, want 2", ev.Elapsed)
	}
}

func TestDebugLogsTransition(t *testing.T) {
	c, buf := newTestController(t, 2, 0)
	c.SetDebugMode(true)
	c.OnScroll(11)
	runFor(c, 2, 0.25)
	out := buf.String()
	if !strings.Contains(out, "0->1 (forward) started") || !strings.Contains(out, "frames: 8") {
		t.Errorf("debug log = %q", out)
	}
}
