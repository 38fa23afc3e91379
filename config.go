package vista

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Config is the site file: which scene to load, which viewpoints to visit,
// and what happens when each transition completes. The per-revision
// numbers of the showcase page (poses, thresholds, video offsets) all live
// here rather than in code.
type Config struct {
	// Scene is the glTF file to load, relative to the config file.
	Scene string `yaml:"scene"`
	// AssetDir is where surface videos are resolved, relative to the
	// config file.
	AssetDir string `yaml:"asset_dir"`
	// Start is the index of the viewpoint the page opens on.
	Start int `yaml:"start"`

	Controller ControllerSection `yaml:"controller"`
	Viewpoints []ViewpointSpec   `yaml:"viewpoints"`
	Surfaces   []SurfaceBinding  `yaml:"surfaces"`
	Content    []Block           `yaml:"content"`
	Effects    []EffectBinding   `yaml:"effects"`

	Window WindowSection `yaml:"window"`
	// PageHeight is the scrollable page height in pixels.
	PageHeight    float64 `yaml:"page_height"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
	Debug         bool    `yaml:"debug"`

	baseDir string
}

// ControllerSection configures the transition controller. Nil fields take
// the defaults of DefaultControllerConfig.
type ControllerSection struct {
	Threshold     *float64      `yaml:"threshold"`
	Duration      float64       `yaml:"duration"`
	Easing        string        `yaml:"easing"`
	FocalPoint    *[3]float64   `yaml:"focal_point"`
	BackwardGuard *GuardSection `yaml:"backward_guard"`
}

// GuardSection configures the backward guard. Omitting it, or omitting
// `enabled`, keeps the guard on; `enabled: false` removes it.
type GuardSection struct {
	Enabled     *bool    `yaml:"enabled"`
	MaxPosition *float64 `yaml:"max_position"`
}

// ViewpointSpec is one entry of the viewpoint sequence: either a scene
// camera (by traversal index), a hand-authored pose, or a scene camera
// with some fields overridden.
type ViewpointSpec struct {
	Name     string      `yaml:"name"`
	Camera   *int        `yaml:"camera"`
	Position *[3]float64 `yaml:"position"`
	LookAt   *[3]float64 `yaml:"look_at"`
	FOV      float64     `yaml:"fov"`
}

// WindowSection sizes the viewer window.
type WindowSection struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Flags holds CLI flag values that override config file settings.
// Zero values (and -1 for Start and Threshold) mean "not set".
type Flags struct {
	Scene     string
	Start     int
	Threshold float64
	Width     int
	Height    int
	Debug     bool
}

// NoFlags returns a Flags value with nothing set.
func NoFlags() Flags {
	return Flags{Start: -1, Threshold: -1}
}

// LoadConfig reads a YAML site file. Relative paths inside it resolve
// against the file's directory.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes a YAML site file. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: parse: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Resolve applies CLI overrides, then fills any empty fields with defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.Start >= 0 {
		c.Start = flags.Start
	}
	if flags.Threshold >= 0 {
		th := flags.Threshold
		c.Controller.Threshold = &th
	}
	if flags.Width > 0 {
		c.Window.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Window.Height = flags.Height
	}
	if flags.Debug {
		c.Debug = true
	}

	// Paths are joined onto baseDir once; later calls see them as final.
	if c.Scene != "" && c.baseDir != "" && !filepath.IsAbs(c.Scene) && flags.Scene == "" {
		c.Scene = filepath.Join(c.baseDir, c.Scene)
	}
	if c.baseDir != "" && !filepath.IsAbs(c.AssetDir) {
		c.AssetDir = filepath.Join(c.baseDir, c.AssetDir)
	}
	c.baseDir = ""

	def := DefaultControllerConfig()
	if c.Controller.Threshold == nil {
		th := def.Threshold
		c.Controller.Threshold = &th
	}
	if c.Controller.Duration <= 0 {
		c.Controller.Duration = float64(def.Duration)
	}
	if c.Controller.Easing == "" {
		c.Controller.Easing = def.Easing
	}
	if c.Controller.BackwardGuard == nil {
		c.Controller.BackwardGuard = &GuardSection{}
	}
	if g := c.Controller.BackwardGuard; g.Enabled == nil {
		on := def.BackwardGuard.Enabled
		g.Enabled = &on
	}
	if g := c.Controller.BackwardGuard; g.MaxPosition == nil {
		bound := def.BackwardGuard.MaxPosition
		g.MaxPosition = &bound
	}
	if c.Window.Width <= 0 {
		c.Window.Width = def.ViewportWidth
	}
	if c.Window.Height <= 0 {
		c.Window.Height = def.ViewportHeight
	}
	if c.Window.Title == "" {
		c.Window.Title = "vista"
	}
	if c.PageHeight <= 0 {
		c.PageHeight = float64(c.Window.Height) * 3
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
}

// Validate reports settings that Resolve cannot repair. Errors wrap
// ErrConfiguration.
func (c *Config) Validate() error {
	if c.Scene == "" && len(c.Viewpoints) == 0 {
		return configErrorf("neither a scene nor viewpoints are configured")
	}
	if c.Start < 0 {
		return configErrorf("start %d must be >= 0", c.Start)
	}
	if _, err := LookupEasing(c.Controller.Easing); err != nil {
		return err
	}
	for i, v := range c.Viewpoints {
		if v.Camera == nil && v.Position == nil {
			return configErrorf("viewpoint %d: needs a camera index or a position", i)
		}
	}
	for i, s := range c.Surfaces {
		if s.Name == "" {
			return configErrorf("surface %d: missing name", i)
		}
		if s.Video != "" && s.Duration <= 0 {
			return configErrorf("surface %s: video needs a positive duration", s.Name)
		}
	}
	return nil
}

// ControllerConfig converts the controller section. Call after Resolve.
func (c *Config) ControllerConfig() ControllerConfig {
	cfg := DefaultControllerConfig()
	if c.Controller.Threshold != nil {
		cfg.Threshold = *c.Controller.Threshold
	}
	if c.Controller.Duration > 0 {
		cfg.Duration = float32(c.Controller.Duration)
	}
	if c.Controller.Easing != "" {
		cfg.Easing = c.Controller.Easing
	}
	if fp := c.Controller.FocalPoint; fp != nil {
		v := mgl64.Vec3(*fp)
		cfg.FocalPoint = &v
	}
	if g := c.Controller.BackwardGuard; g != nil {
		if g.Enabled != nil {
			cfg.BackwardGuard.Enabled = *g.Enabled
		}
		if g.MaxPosition != nil {
			cfg.BackwardGuard.MaxPosition = *g.MaxPosition
		}
	}
	cfg.ViewportWidth = c.Window.Width
	cfg.ViewportHeight = c.Window.Height
	return cfg
}

// LoadOptions returns the scene load options for the configured surfaces.
func (c *Config) LoadOptions() LoadOptions {
	return LoadOptions{Surfaces: c.Surfaces, AssetDir: c.AssetDir}
}

// BuildViewpoints resolves the viewpoint sequence against the loaded scene
// (which may be nil when every viewpoint is hand-authored). With no
// viewpoints configured, the scene cameras are used in traversal order.
func (c *Config) BuildViewpoints(scene *SceneHandle) ([]Viewpoint, error) {
	var cams []Viewpoint
	if scene != nil {
		cams = scene.Cameras()
	}
	if len(c.Viewpoints) == 0 {
		if len(cams) == 0 {
			return nil, configErrorf("scene has no cameras and no viewpoints are configured")
		}
		return append([]Viewpoint(nil), cams...), nil
	}

	out := make([]Viewpoint, 0, len(c.Viewpoints))
	for i, vs := range c.Viewpoints {
		var vp Viewpoint
		switch {
		case vs.Camera != nil:
			idx := *vs.Camera
			if idx < 0 || idx >= len(cams) {
				return nil, configErrorf("viewpoint %d: scene camera %d not found (have %d)", i, idx, len(cams))
			}
			vp = cams[idx]
		case vs.Position == nil:
			return nil, configErrorf("viewpoint %d: needs a camera index or a position", i)
		default:
			vp.FieldOfView = defaultFieldOfView
		}
		if vs.Position != nil {
			vp.Position = mgl64.Vec3(*vs.Position)
		}
		if vs.LookAt != nil {
			vp.LookAt = mgl64.Vec3(*vs.LookAt)
		} else if vs.Camera == nil && c.Controller.FocalPoint != nil {
			vp.LookAt = mgl64.Vec3(*c.Controller.FocalPoint)
		}
		if vs.FOV > 0 {
			vp.FieldOfView = vs.FOV
		}
		if vs.Name != "" {
			vp.Name = vs.Name
		}
		if vp.Name == "" {
			vp.Name = fmt.Sprintf("viewpoint%d", i)
		}
		out = append(out, vp)
	}
	return out, nil
}
