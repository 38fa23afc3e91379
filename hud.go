package vista

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// hudState caches the FPS/TPS line, refreshed every ~0.5 seconds.
type hudState struct {
	sinceRefresh float64
	rates        string
}

func (s *hudState) update(dt float64) {
	s.sinceRefresh += dt
	if s.rates != "" && s.sinceRefresh < 0.5 {
		return
	}
	s.sinceRefresh = 0
	s.rates = fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

// hudText builds the overlay: rates, controller state, scroll offset,
// latched flags, and the attached content blocks.
func (h *Host) hudText() string {
	var b strings.Builder
	if h.hud.rates != "" {
		b.WriteString(h.hud.rates)
		b.WriteByte('\n')
	}
	if h.loadErr != nil {
		fmt.Fprintf(&b, "scene load failed: %v\n", h.loadErr)
		return b.String()
	}

	c := h.ctrl
	if target, ok := c.TargetIndex(); ok {
		fmt.Fprintf(&b, "viewpoint %d -> %d (%s) %3.0f%%\n", c.ActiveIndex(), target, c.Direction(), c.Progress()*100)
	} else {
		name := ""
		if vps := c.Viewpoints(); c.ActiveIndex() < len(vps) {
			name = vps[c.ActiveIndex()].Name
		}
		fmt.Fprintf(&b, "viewpoint %d %s\n", c.ActiveIndex(), name)
	}
	fmt.Fprintf(&b, "scroll %.0f / %.0f\n", h.scroll.Offset(), h.scroll.MaxOffset())

	if h.effects != nil {
		if flags := h.effects.Flags(); len(flags) > 0 {
			fmt.Fprintf(&b, "done: %s\n", strings.Join(flags, ", "))
		}
	}
	if h.doc != nil {
		for _, blk := range h.doc.Blocks() {
			fmt.Fprintf(&b, "[%s] %s\n", blk.ID, firstLine(blk.Content, 60))
		}
	}
	return b.String()
}

func (h *Host) drawHUD(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, h.hudText(), 8, 8)
}

func firstLine(s string, limit int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
