package vista

import (
	"fmt"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// RunConfig configures the Host window and overlay.
type RunConfig struct {
	Title         string
	Width, Height int
	// PageHeight is the scrollable page height in pixels.
	PageHeight float64
	ShowHUD    bool
	// ScreenshotDir receives PNGs queued with Host.Screenshot.
	ScreenshotDir string
	ClearColor    Color
	WireColor     Color
	SurfaceColor  Color
	Logger        *log.Logger
	Debug         bool
}

// Host is the render loop: an ebiten.Game that feeds scroll input to the
// Controller, steps it once per tick, and draws the scene from the active
// camera pose. Update, Draw, and Layout all run on ebiten's game goroutine,
// which serializes resize events with transition progress.
type Host struct {
	ctrl    *Controller
	scroll  *ScrollInput
	scene   *SceneHandle
	doc     *MemoryDocument
	effects *SideEffects
	clips   map[string]*Clip
	cfg     RunConfig
	log     *log.Logger

	loadErr       error
	width, height int
	hud           hudState

	updateFunc func() error

	// Scripted input (testrunner.go, inject.go)
	testRunner  *TestRunner
	injectQueue []syntheticScroll

	// Screenshots (screenshot.go)
	ScreenshotDir   string
	screenshotQueue []string
}

// NewHost creates a host around an initialized controller.
func NewHost(ctrl *Controller, cfg RunConfig) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[vista] ", 0)
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	if cfg.PageHeight <= 0 {
		cfg.PageHeight = float64(cfg.Height) * 3
	}
	if cfg.ClearColor == (Color{}) {
		cfg.ClearColor = Color{R: 0.15, G: 0.11, B: 0.12, A: 1}
	}
	if cfg.WireColor == (Color{}) {
		cfg.WireColor = ColorWhite
	}
	if cfg.SurfaceColor == (Color{}) {
		cfg.SurfaceColor = Color{R: 0.45, G: 0.75, B: 1, A: 1}
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	h := &Host{
		ctrl:          ctrl,
		scroll:        NewScrollInput(cfg.PageHeight-float64(cfg.Height), ebiten.TPS()),
		clips:         make(map[string]*Clip),
		cfg:           cfg,
		log:           logger,
		width:         cfg.Width,
		height:        cfg.Height,
		ScreenshotDir: cfg.ScreenshotDir,
	}
	ctrl.Resize(cfg.Width, cfg.Height)
	return h
}

// SetScene attaches the loaded scene and creates a Clip for every surface
// bound to a video.
func (h *Host) SetScene(scene *SceneHandle) {
	h.scene = scene
	h.loadErr = nil
	h.clips = make(map[string]*Clip)
	if scene == nil {
		return
	}
	for _, name := range scene.SurfaceNames() {
		s := scene.Surface(name)
		if s.Video == "" {
			continue
		}
		clip := NewClip(s.VideoDuration, s.Loop)
		clip.Mapping = s.Mapping
		if s.Loop {
			// Looping surfaces autoplay, as the page's ambient screen does.
			clip.Play()
		}
		h.clips[name] = clip
	}
}

// SetLoadError records a failed scene load. It is logged once and the
// scene stays unrendered; nothing retries.
func (h *Host) SetLoadError(err error) {
	h.loadErr = err
	h.scene = nil
	h.log.Printf("scene load failed: %v", err)
}

// SetDocument attaches the page content shown in the overlay.
func (h *Host) SetDocument(doc *MemoryDocument) {
	h.doc = doc
}

// SetSideEffects attaches the coordinator whose latched flags the overlay
// shows.
func (h *Host) SetSideEffects(fx *SideEffects) {
	h.effects = fx
}

// SetUpdateFunc sets a callback run at the end of every Update.
func (h *Host) SetUpdateFunc(fn func() error) {
	h.updateFunc = fn
}

// Scroll returns the scroll input adapter.
func (h *Host) Scroll() *ScrollInput {
	return h.scroll
}

// Controller returns the hosted controller.
func (h *Host) Controller() *Controller {
	return h.ctrl
}

// Clip returns the clip bound to a surface, or nil.
func (h *Host) Clip(surface string) *Clip {
	return h.clips[surface]
}

// Video returns the clip bound to a surface as a VideoPlayer, or nil.
func (h *Host) Video(surface string) VideoPlayer {
	if c := h.clips[surface]; c != nil {
		return c
	}
	return nil
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))
	if h.cfg.Debug {
		h.debugCheckFrameDelta(dt)
	}
	h.step(dt)
	if h.updateFunc != nil {
		return h.updateFunc()
	}
	return nil
}

// step is one tick: scripted input, real input, scroll, controller, clips.
func (h *Host) step(dt float32) {
	if h.testRunner != nil {
		h.testRunner.step(h)
	}
	h.processInput()
	h.ctrl.OnScroll(h.scroll.Update())
	h.ctrl.Update(dt)
	for _, c := range h.clips {
		c.Update(float64(dt))
	}
	h.hud.update(float64(dt))
}

// processInput consumes one injected event if any are queued; otherwise it
// reads the wheel and the page navigation keys.
func (h *Host) processInput() {
	if h.processInjectedInput() {
		return
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		h.scroll.Wheel(dy)
	}
	page := float64(h.height) * 0.9
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		h.scroll.ScrollBy(h.scroll.LineHeight)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		h.scroll.ScrollBy(-h.scroll.LineHeight)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		h.scroll.ScrollBy(page)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		h.scroll.ScrollBy(-page)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		h.scroll.ScrollTo(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		h.scroll.ScrollTo(h.scroll.MaxOffset())
	}
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	screen.Fill(h.cfg.ClearColor.toRGBA())
	if h.loadErr == nil && h.ctrl.Initialized() {
		h.drawScene(screen)
	}
	if h.cfg.ShowHUD || h.loadErr != nil {
		h.drawHUD(screen)
	}
	h.flushScreenshots(screen)
}

// Layout implements ebiten.Game. A changed window size is forwarded to the
// controller, which only recomputes the aspect ratio.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != h.width || outsideHeight != h.height {
		h.resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func (h *Host) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	h.width, h.height = width, height
	h.ctrl.Resize(width, height)
	h.scroll.SetMaxOffset(h.cfg.PageHeight - float64(height))
}

func (h *Host) drawScene(screen *ebiten.Image) {
	cam := h.ctrl.Camera()
	if h.scene != nil {
		for _, box := range h.scene.Boxes() {
			clr := h.cfg.WireColor
			width := float32(1)
			if c := h.clips[box.Name]; c != nil {
				clr = surfaceTint(h.cfg.SurfaceColor, c)
				width = 2
			}
			h.strokeBox(screen, cam, box, clr, width)
		}
	}

	// Viewpoint markers and the focal point.
	for i, vp := range h.ctrl.Viewpoints() {
		clr := Color{R: 0.6, G: 0.6, B: 0.6, A: 1}
		if i == h.ctrl.ActiveIndex() {
			clr = Color{R: 1, G: 0.8, B: 0.3, A: 1}
		}
		h.strokeCross(screen, cam, vp.Position, 6, clr)
	}
	h.strokeCross(screen, cam, cam.LookAt, 4, Color{R: 1, G: 0.35, B: 0.45, A: 1})
}

func (h *Host) strokeBox(screen *ebiten.Image, cam *PerspectiveCamera, box Box, clr Color, width float32) {
	rgba := clr.toRGBA()
	for _, e := range boxEdges {
		x0, y0, ok0 := cam.WorldToScreen(box.Corners[e[0]])
		x1, y1, ok1 := cam.WorldToScreen(box.Corners[e[1]])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, rgba, true)
	}
}

func (h *Host) strokeCross(screen *ebiten.Image, cam *PerspectiveCamera, p mgl64.Vec3, size float32, clr Color) {
	sx, sy, ok := cam.WorldToScreen(p)
	if !ok {
		return
	}
	x, y := float32(sx), float32(sy)
	rgba := clr.toRGBA()
	vector.StrokeLine(screen, x-size, y, x+size, y, 1, rgba, true)
	vector.StrokeLine(screen, x, y-size, x, y+size, 1, rgba, true)
}

// surfaceTint brightens the surface color as its clip plays through.
func surfaceTint(base Color, c *Clip) Color {
	k := 0.3 + 0.7*c.Fraction()
	return Color{R: base.R * k, G: base.G * k, B: base.B * k, A: base.A}
}

// Run opens a window and runs the host until the window is closed.
func Run(h *Host) error {
	ebiten.SetWindowSize(h.cfg.Width, h.cfg.Height)
	ebiten.SetWindowTitle(h.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(h); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
