package vista

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports bad initialization arguments. Fatal: callers
	// should fail before any rendering starts.
	ErrConfiguration = errors.New("vista: configuration error")

	// ErrAssetLoad reports a scene or asset that could not be read or parsed.
	// The scene stays unrendered; nothing retries.
	ErrAssetLoad = errors.New("vista: asset load error")

	// ErrInvalidViewpoint is matched by every *InvalidViewpointError.
	ErrInvalidViewpoint = errors.New("vista: invalid viewpoint")

	// ErrTransitionInFlight is returned by BeginTransition while another
	// transition is still running. Scroll-driven requests drop it silently.
	ErrTransitionInFlight = errors.New("vista: transition in flight")

	// ErrNotInitialized is returned by controller operations that need
	// viewpoints before Initialize has succeeded.
	ErrNotInitialized = errors.New("vista: controller not initialized")
)

// InvalidViewpointError is returned when a transition names an index that
// does not exist in the viewpoint sequence.
type InvalidViewpointError struct {
	Index int
	Count int
}

func (e *InvalidViewpointError) Error() string {
	return fmt.Sprintf("vista: invalid viewpoint %d (have %d)", e.Index, e.Count)
}

// Is reports whether target is ErrInvalidViewpoint.
func (e *InvalidViewpointError) Is(target error) bool {
	return target == ErrInvalidViewpoint
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
