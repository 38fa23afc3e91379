// vista - scroll-driven 3D showcase viewer
// Loads a site file, walks its glTF scene's viewpoints as the page scrolls,
// and plays the configured side effects when each transition completes.
//
// Controls:
//
//	Wheel / arrows   - Scroll
//	Page Up/Down     - Scroll one page
//	Space            - Scroll one page down
//	Home/End         - Jump to top or bottom
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phanxgames/vista"
	"github.com/spf13/cobra"
)

var (
	flags      = vista.NoFlags()
	showHUD    bool
	scriptPath string
)

func main() {
	cmd := &cobra.Command{
		Use:   "vista <site.yaml>",
		Short: "Scroll-driven 3D showcase viewer",
		Long: `vista - scroll-driven 3D showcase viewer

Loads a site file and moves the camera between the scene's viewpoints as
the page scrolls. Scroll down to step forward, scroll back to the top to
step backward.

Controls:
  Wheel / arrows  - Scroll
  Page Up/Down    - Scroll one page
  Space           - Scroll one page down
  Home/End        - Jump to top or bottom`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&flags.Scene, "scene", "", "glTF scene to load (overrides the site file)")
	cmd.Flags().IntVar(&flags.Start, "start", -1, "Starting viewpoint index")
	cmd.Flags().Float64Var(&flags.Threshold, "threshold", -1, "Scroll jitter threshold in pixels")
	cmd.Flags().IntVar(&flags.Width, "width", 0, "Window width")
	cmd.Flags().IntVar(&flags.Height, "height", 0, "Window height")
	cmd.Flags().BoolVar(&flags.Debug, "debug", false, "Log transitions and dropped scroll events")
	cmd.Flags().BoolVar(&showHUD, "hud", false, "Show the state overlay")
	cmd.Flags().StringVar(&scriptPath, "script", "", "JSON test script to drive input and screenshots")

	infoCmd := &cobra.Command{
		Use:   "info <scene.gltf>",
		Short: "Display scene cameras and surfaces",
		Long:  "Display the cameras a scene offers as viewpoints, in traversal order, and the named mesh surfaces videos can bind to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), args[0])
		},
	}
	cmd.AddCommand(infoCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, sitePath string) error {
	logger := log.New(os.Stderr, "[vista] ", 0)

	cfg, err := vista.LoadConfig(sitePath)
	if err != nil {
		return err
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ccfg := cfg.ControllerConfig()
	ccfg.Logger = logger
	ctrl := vista.NewController(ccfg)
	ctrl.SetDebugMode(cfg.Debug)

	host := vista.NewHost(ctrl, vista.RunConfig{
		Title:         cfg.Window.Title,
		Width:         cfg.Window.Width,
		Height:        cfg.Window.Height,
		PageHeight:    cfg.PageHeight,
		ShowHUD:       showHUD || cfg.Debug,
		ScreenshotDir: cfg.ScreenshotDir,
		Logger:        logger,
		Debug:         cfg.Debug,
	})

	var scene *vista.SceneHandle
	if cfg.Scene != "" {
		res := <-vista.LoadSceneAsync(ctx, cfg.Scene, cfg.LoadOptions())
		if res.Err != nil {
			if !errors.Is(res.Err, vista.ErrAssetLoad) {
				return res.Err
			}
			// The page stays up with an empty scene.
			host.SetLoadError(res.Err)
			return vista.Run(host)
		}
		scene = res.Scene
		host.SetScene(scene)
	}

	viewpoints, err := cfg.BuildViewpoints(scene)
	if err != nil {
		return err
	}
	if err := ctrl.Initialize(viewpoints, cfg.Start); err != nil {
		return err
	}
	if cfg.Debug {
		for i, vp := range viewpoints {
			logger.Printf("viewpoint %d: %s", i, vp)
		}
	}

	doc := vista.NewMemoryDocument(cfg.Content...)
	effects := vista.NewSideEffects(logger)
	host.SetDocument(doc)
	host.SetSideEffects(effects)
	_, err = vista.WireEffects(ctrl, cfg.Effects, vista.EffectEnv{
		Effects:  effects,
		Document: doc,
		Stash:    vista.NewContentStash(doc),
		Video:    host.Video,
	})
	if err != nil {
		return err
	}

	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		runner, err := vista.LoadTestScript(data)
		if err != nil {
			return err
		}
		host.SetTestRunner(runner)
		host.SetUpdateFunc(func() error {
			if runner.Done() {
				return errDone
			}
			return nil
		})
	}

	err = vista.Run(host)
	if errors.Is(err, errDone) {
		return nil
	}
	return err
}

var errDone = errors.New("script done")

func runInfo(ctx context.Context, scenePath string) error {
	scene, err := vista.LoadScene(ctx, scenePath, vista.LoadOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", filepath.Base(scenePath))
	fmt.Printf("Cameras:  %d\n", len(scene.Cameras()))
	for i, cam := range scene.Cameras() {
		fmt.Printf("  [%d] %s\n", i, cam)
	}
	fmt.Println()
	fmt.Printf("Surfaces: %d\n", len(scene.SurfaceNames()))
	for _, name := range scene.SurfaceNames() {
		box := scene.Surface(name).Box
		lo, hi := box.Corners[0], box.Corners[7]
		fmt.Printf("  %-16s (%.3f, %.3f, %.3f) .. (%.3f, %.3f, %.3f)\n",
			name, lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
	}
	return nil
}
