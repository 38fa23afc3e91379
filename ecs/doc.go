// Package ecs provides ECS adapters for vista's transition events.
//
// The primary adapter is [NewDonburiSink], which bridges completed camera
// transitions into a [Donburi] world as typed events. Subscribe to
// [TransitionEventType] in your ECS systems to receive them, or read the
// [ViewpointState] component on the sink's entity to poll the viewpoint
// the camera currently rests on.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	controller.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
