// Package vista drives a 3D showcase page from scroll input.
//
// A page walks a fixed, ordered sequence of camera [Viewpoint]s. Scrolling
// down moves the camera to the next viewpoint, scrolling back to the top
// moves it to the previous one, and each move is a timed, eased transition
// of the camera position while the camera keeps facing a fixed focal point.
// When a transition completes, callbacks registered for that exact pair of
// viewpoints run once, which is where page side effects live: playing a
// video on a screen in the scene, hiding or restoring content blocks,
// restyling them.
//
// # Quick start
//
// Load a site file, load its scene, and hand everything to a [Host]:
//
//	cfg, _ := vista.LoadConfig("site.yaml")
//	cfg.Resolve(vista.NoFlags())
//	ctrl := vista.NewController(cfg.ControllerConfig())
//	scene, _ := vista.LoadScene(ctx, cfg.Scene, cfg.LoadOptions())
//	viewpoints, _ := cfg.BuildViewpoints(scene)
//	ctrl.Initialize(viewpoints, cfg.Start)
//	host := vista.NewHost(ctrl, vista.RunConfig{Title: "showcase"})
//	host.SetScene(scene)
//	vista.Run(host)
//
// For full control, skip the Host and drive the [Controller] yourself:
// call [Controller.OnScroll] with the raw page offset on every scroll event
// and [Controller.Update] once per frame, then read
// [Controller.ActiveCameraPose].
//
// # Transitions
//
// The controller is either idle or transitioning. Scroll deltas no larger
// than the threshold are ignored. Requests that arrive while a transition
// is in flight are dropped, not queued. Backward steps can be restricted to
// the top of the page with a [BackwardGuard].
//
// Only the position is tweened (see [LookupEasing] for the available
// curves). The field of view snaps to the target's at the start of a
// transition.
//
// # Side effects
//
// [SideEffects] holds one-shot flags that latch once and never reset.
// [SideEffects.PlayVideoOnce] starts a video at most once and pins it to its
// last frame when it ends. [ContentStash] hides content blocks and restores
// them later with their content intact. [WireEffects] registers the effect
// bindings of a site file as completion callbacks.
//
// # Errors
//
// Setup failures wrap [ErrConfiguration]. Scene and video failures wrap
// [ErrAssetLoad]; the page stays up with nothing rendered. A transition to
// an unknown index returns an [*InvalidViewpointError].
//
// # ECS integration
//
// Set an [EventSink] on the controller to receive a [TransitionEvent] per
// completed transition. The ecs sub-module bridges these into a Donburi
// world.
//
// # Automated testing
//
// [LoadTestScript] parses a JSON script of scroll, resize, wait, and
// screenshot steps. Attach it with [Host.SetTestRunner]; screenshots are
// written as PNGs to [Host.ScreenshotDir].
package vista
