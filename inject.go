package vista

type injectKind uint8

const (
	injectScrollBy injectKind = iota
	injectScrollTo
	injectWheel
	injectResize
)

// syntheticScroll is a single injected input event.
type syntheticScroll struct {
	kind          injectKind
	value         float64
	width, height int
}

// InjectScroll queues a relative scroll of px pixels (positive scrolls
// down). The event is consumed on the next tick's input pass and goes
// through the spring like real input.
func (h *Host) InjectScroll(px float64) {
	h.injectQueue = append(h.injectQueue, syntheticScroll{kind: injectScrollBy, value: px})
}

// InjectScrollTo queues a jump to an absolute offset, skipping the spring
// so scripted runs land on exact positions.
func (h *Host) InjectScrollTo(px float64) {
	h.injectQueue = append(h.injectQueue, syntheticScroll{kind: injectScrollTo, value: px})
}

// InjectWheel queues an ebiten-style wheel delta (positive scrolls up).
func (h *Host) InjectWheel(dy float64) {
	h.injectQueue = append(h.injectQueue, syntheticScroll{kind: injectWheel, value: dy})
}

// InjectResize queues a window resize.
func (h *Host) InjectResize(width, height int) {
	h.injectQueue = append(h.injectQueue, syntheticScroll{kind: injectResize, width: width, height: height})
}

// processInjectedInput pops one event from the inject queue and applies it.
// Returns true if an event was consumed (real input is skipped that tick).
func (h *Host) processInjectedInput() bool {
	if len(h.injectQueue) == 0 {
		return false
	}
	evt := h.injectQueue[0]
	copy(h.injectQueue, h.injectQueue[1:])
	h.injectQueue = h.injectQueue[:len(h.injectQueue)-1]

	switch evt.kind {
	case injectScrollBy:
		h.scroll.ScrollBy(evt.value)
	case injectScrollTo:
		h.scroll.Jump(evt.value)
	case injectWheel:
		h.scroll.Wheel(evt.value)
	case injectResize:
		h.resize(evt.width, evt.height)
	}
	return true
}
