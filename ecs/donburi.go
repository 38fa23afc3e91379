// Package ecs provides ECS adapters for vista.
package ecs

import (
	"github.com/phanxgames/vista"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// TransitionEventType is the Donburi event type for completed camera
// transitions. Each event carries the viewpoint index the camera left
// (From), the index it settled on (To), whether the page was scrolled down
// (Forward) or back up (Backward), and the tween time in seconds. Events
// are published after the controller is idle again and after its own
// completion callbacks have run.
var TransitionEventType = events.NewEventType[vista.TransitionEvent]()

// ViewpointState mirrors the controller's resting viewpoint inside the
// world, so systems can poll it instead of subscribing.
type ViewpointState struct {
	// Active is the viewpoint the camera rests on, or -1 before the first
	// completed transition.
	Active int
	// Previous is the viewpoint the last transition started from, or -1.
	Previous    int
	Direction   vista.Direction
	Transitions int
	// LastElapsed is the tween time of the most recent transition, in
	// seconds.
	LastElapsed float64
}

// ViewpointStateComponent holds the ViewpointState of a DonburiSink.
var ViewpointStateComponent = donburi.NewComponentType[ViewpointState]()

// DonburiSink is a vista.EventSink backed by a Donburi world.
type DonburiSink struct {
	world  donburi.World
	entity donburi.Entity
}

// NewDonburiSink creates a sink that publishes completed transitions to
// TransitionEventType and keeps a ViewpointState entity up to date.
// Published events are delivered by events.ProcessEvents or
// ProcessAllEvents; the ViewpointState is updated immediately.
func NewDonburiSink(world donburi.World) *DonburiSink {
	e := world.Create(ViewpointStateComponent)
	ViewpointStateComponent.SetValue(world.Entry(e), ViewpointState{Active: -1, Previous: -1})
	return &DonburiSink{world: world, entity: e}
}

// Entity returns the entity holding the sink's ViewpointState.
func (s *DonburiSink) Entity() donburi.Entity {
	return s.entity
}

// State returns a copy of the current ViewpointState.
func (s *DonburiSink) State() ViewpointState {
	return *ViewpointStateComponent.Get(s.world.Entry(s.entity))
}

// EmitTransition implements vista.EventSink.
func (s *DonburiSink) EmitTransition(event vista.TransitionEvent) {
	st := ViewpointStateComponent.Get(s.world.Entry(s.entity))
	st.Previous = event.From
	st.Active = event.To
	st.Direction = event.Direction
	st.Transitions++
	st.LastElapsed = event.Elapsed
	TransitionEventType.Publish(s.world, event)
}
