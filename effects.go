package vista

import (
	"fmt"
	"log"
	"os"
	"sort"
)

// VideoPlayer is the playback surface a side effect can start. Clip is the
// in-process implementation used by the Host.
type VideoPlayer interface {
	Play()
	Pause()
	// SeekEnd moves playback to the last frame.
	SeekEnd()
	Playing() bool
	// OnEnded sets the callback fired when playback reaches the natural end
	// of a non-looping video.
	OnEnded(fn func())
}

// SideEffects owns the one-shot flags of a page session. A flag moves from
// false to true at most once and is never reset, so effects with
// irreversible consequences fire at most once.
type SideEffects struct {
	flags   map[string]bool
	started map[string]bool
	log     *log.Logger
}

// NewSideEffects creates a coordinator with every flag cleared. A nil
// logger logs to stderr.
func NewSideEffects(logger *log.Logger) *SideEffects {
	if logger == nil {
		logger = log.New(os.Stderr, "[vista] ", 0)
	}
	return &SideEffects{
		flags:   make(map[string]bool),
		started: make(map[string]bool),
		log:     logger,
	}
}

// Latched reports whether the named flag has been set.
func (s *SideEffects) Latched(name string) bool {
	return s.flags[name]
}

// Latch sets the named flag. It reports true only on the call that moved
// the flag from false to true.
func (s *SideEffects) Latch(name string) bool {
	if s.flags[name] {
		return false
	}
	s.flags[name] = true
	return true
}

// Once runs fn the first time it is called for name and latches the flag
// before running it. Later calls are no-ops. Reports whether fn ran.
func (s *SideEffects) Once(name string, fn func()) bool {
	if !s.Latch(name) {
		return false
	}
	fn()
	return true
}

// PlayVideoOnce starts v unless the named flag is latched or playback was
// already started by an earlier call. When the video ends naturally it is
// pinned to its last frame, paused, and the flag is latched for good.
// Reports whether playback was started.
func (s *SideEffects) PlayVideoOnce(name string, v VideoPlayer) bool {
	if v == nil {
		s.log.Printf("play %q: no video bound", name)
		return false
	}
	if s.flags[name] || s.started[name] {
		return false
	}
	s.started[name] = true
	v.OnEnded(func() {
		v.SeekEnd()
		v.Pause()
		s.Latch(name)
	})
	v.Play()
	return true
}

// Flags returns the latched flag names in sorted order.
func (s *SideEffects) Flags() []string {
	names := make([]string, 0, len(s.flags))
	for name, set := range s.flags {
		if set {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// --- Wiring from configuration ---

// Effect action kinds accepted in EffectAction.Kind.
const (
	ActionPlayVideo = "play_video"
	ActionHide      = "hide"
	ActionRestore   = "restore"
	ActionStyle     = "style"
)

// EffectAction is one side effect to run when a transition completes.
type EffectAction struct {
	Kind string `yaml:"kind"`
	// Surface names the video-backed surface for play_video.
	Surface string `yaml:"surface,omitempty"`
	// Blocks lists content block IDs for hide.
	Blocks []string `yaml:"blocks,omitempty"`
	// Block, Property, and Value describe a style change.
	Block    string `yaml:"block,omitempty"`
	Property string `yaml:"property,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// EffectBinding attaches actions to the completion of the transition from
// viewpoint From to viewpoint To.
type EffectBinding struct {
	From    int            `yaml:"from"`
	To      int            `yaml:"to"`
	Actions []EffectAction `yaml:"actions"`
}

// EffectEnv supplies the collaborators effect actions act on.
type EffectEnv struct {
	Effects  *SideEffects
	Document Document
	Stash    *ContentStash
	// Video returns the player bound to a surface name, or nil.
	Video func(surface string) VideoPlayer
}

// WireEffects validates bindings and registers them as completion callbacks
// on an initialized controller. A binding naming a viewpoint the controller
// does not have yields an *InvalidViewpointError; a malformed action yields
// ErrConfiguration. Nothing is registered unless every binding is valid.
func WireEffects(c *Controller, bindings []EffectBinding, env EffectEnv) ([]CallbackHandle, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}
	n := len(c.Viewpoints())
	for i, b := range bindings {
		for _, idx := range [2]int{b.From, b.To} {
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("effect binding %d: %w", i, &InvalidViewpointError{Index: idx, Count: n})
			}
		}
		for j, a := range b.Actions {
			if err := validateAction(a, env); err != nil {
				return nil, fmt.Errorf("effect binding %d action %d: %w", i, j, err)
			}
		}
	}

	handles := make([]CallbackHandle, 0, len(bindings))
	for _, b := range bindings {
		actions := append([]EffectAction(nil), b.Actions...)
		handles = append(handles, c.OnComplete(b.From, b.To, func() {
			for _, a := range actions {
				runAction(a, env)
			}
		}))
	}
	return handles, nil
}

func validateAction(a EffectAction, env EffectEnv) error {
	switch a.Kind {
	case ActionPlayVideo:
		if a.Surface == "" {
			return configErrorf("play_video needs a surface")
		}
		if env.Effects == nil || env.Video == nil {
			return configErrorf("play_video needs side effects and a video source")
		}
	case ActionHide:
		if len(a.Blocks) == 0 {
			return configErrorf("hide needs at least one block")
		}
		if env.Stash == nil {
			return configErrorf("hide needs a content stash")
		}
	case ActionRestore:
		if env.Stash == nil {
			return configErrorf("restore needs a content stash")
		}
	case ActionStyle:
		if a.Block == "" || a.Property == "" {
			return configErrorf("style needs a block and a property")
		}
		if env.Document == nil {
			return configErrorf("style needs a document")
		}
	default:
		return configErrorf("unknown action kind %q", a.Kind)
	}
	return nil
}

func runAction(a EffectAction, env EffectEnv) {
	switch a.Kind {
	case ActionPlayVideo:
		env.Effects.PlayVideoOnce("video:"+a.Surface, env.Video(a.Surface))
	case ActionHide:
		env.Stash.Hide(a.Blocks...)
	case ActionRestore:
		env.Stash.Restore()
	case ActionStyle:
		env.Document.SetStyle(a.Block, a.Property, a.Value)
	}
}
