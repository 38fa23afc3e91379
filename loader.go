package vista

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"golang.org/x/sync/errgroup"
)

// Surface is a named mesh node of the loaded scene, optionally bound to a
// video texture.
type Surface struct {
	Name string
	Box  Box
	// Video is the resolved video file path, empty when unbound.
	Video   string
	Loop    bool
	Mapping TextureMapping
	// VideoDuration is the clip length in seconds used by the Host's Clip.
	VideoDuration float64
}

// Box is the world-space bounding box of one mesh node.
type Box struct {
	Name    string
	Corners [8]mgl64.Vec3
}

// boxEdges lists corner index pairs forming the 12 edges of a Box. Corner i
// has x from bit 0, y from bit 1, z from bit 2.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// SurfaceBinding binds a video to a named surface of the scene.
type SurfaceBinding struct {
	Name     string         `yaml:"name"`
	Video    string         `yaml:"video"`
	Loop     bool           `yaml:"loop"`
	Duration float64        `yaml:"duration"`
	Mapping  TextureMapping `yaml:",inline"`
}

// LoadOptions tunes LoadScene.
type LoadOptions struct {
	// Surfaces binds videos to named nodes. Video paths are resolved
	// relative to AssetDir.
	Surfaces []SurfaceBinding
	AssetDir string
}

// SceneHandle is the result of a successful scene load.
type SceneHandle struct {
	path     string
	cameras  []Viewpoint
	surfaces map[string]*Surface
	boxes    []Box
}

// Path returns the scene file the handle was loaded from.
func (h *SceneHandle) Path() string {
	return h.path
}

// Cameras returns the scene cameras as viewpoints, in scene traversal
// order. The returned slice MUST NOT be mutated.
func (h *SceneHandle) Cameras() []Viewpoint {
	return h.cameras
}

// Surface returns the named surface, or nil.
func (h *SceneHandle) Surface(name string) *Surface {
	return h.surfaces[name]
}

// SurfaceNames returns the names of all surfaces in sorted order.
func (h *SceneHandle) SurfaceNames() []string {
	names := make([]string, 0, len(h.surfaces))
	for name := range h.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Boxes returns the world-space mesh bounds for wireframe drawing.
func (h *SceneHandle) Boxes() []Box {
	return h.boxes
}

// LoadResult is the single completion signal of LoadSceneAsync.
type LoadResult struct {
	Scene *SceneHandle
	Err   error
}

// LoadSceneAsync runs LoadScene on its own goroutine and delivers exactly
// one result on the returned channel.
func LoadSceneAsync(ctx context.Context, path string, opts LoadOptions) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		scene, err := LoadScene(ctx, path, opts)
		ch <- LoadResult{Scene: scene, Err: err}
	}()
	return ch
}

// LoadScene reads a glTF scene, discovers its cameras and mesh surfaces,
// and binds videos to surfaces. The scene document and the bound video
// files are checked concurrently. Every failure wraps ErrAssetLoad.
func LoadScene(ctx context.Context, path string, opts LoadOptions) (*SceneHandle, error) {
	var doc *gltf.Document
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d, err := gltf.Open(path)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrAssetLoad, path, err)
		}
		doc = d
		return nil
	})

	for _, b := range opts.Surfaces {
		if b.Video == "" {
			continue
		}
		video := resolveAsset(opts.AssetDir, b.Video)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := os.Stat(video); err != nil {
				return fmt.Errorf("%w: surface %s: %v", ErrAssetLoad, b.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := buildScene(doc)
	h.path = path
	for _, b := range opts.Surfaces {
		s := h.surfaces[b.Name]
		if s == nil {
			// A missing screen node leaves the rest of the scene usable.
			continue
		}
		if b.Video != "" {
			s.Video = resolveAsset(opts.AssetDir, b.Video)
		}
		s.Loop = b.Loop
		s.Mapping = b.Mapping
		s.VideoDuration = b.Duration
	}
	return h, nil
}

func resolveAsset(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// buildScene walks the default scene depth-first, accumulating node
// transforms, and collects cameras and mesh bounds.
func buildScene(doc *gltf.Document) *SceneHandle {
	h := &SceneHandle{surfaces: make(map[string]*Surface)}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		// No scene list: treat every node as a root.
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
	}

	visited := make(map[int]bool)
	var walk func(idx int, parent mgl64.Mat4)
	walk = func(idx int, parent mgl64.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		n := doc.Nodes[idx]
		world := parent.Mul4(localMatrix(n))

		if n.Camera != nil && *n.Camera < len(doc.Cameras) {
			h.cameras = append(h.cameras, cameraViewpoint(n, doc.Cameras[*n.Camera], world, len(h.cameras)))
		}
		if n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			if lo, hi, ok := meshBounds(doc, doc.Meshes[*n.Mesh]); ok {
				box := transformBox(nodeName(n, idx), lo, hi, world)
				h.boxes = append(h.boxes, box)
				if n.Name != "" {
					h.surfaces[n.Name] = &Surface{Name: n.Name, Box: box}
				}
			}
		}
		for _, child := range n.Children {
			walk(child, world)
		}
	}
	for _, r := range roots {
		walk(r, mgl64.Ident4())
	}
	return h
}

func nodeName(n *gltf.Node, idx int) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("node%d", idx)
}

// localMatrix returns the node's local transform. Zero-valued TRS fields
// are read as their glTF defaults.
func localMatrix(n *gltf.Node) mgl64.Mat4 {
	if n.Matrix != [16]float64{} && n.Matrix != identityArray {
		return mgl64.Mat4(n.Matrix)
	}
	t := n.Translation
	r := n.Rotation
	s := n.Scale
	if r == [4]float64{} {
		r = [4]float64{0, 0, 0, 1}
	}
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

var identityArray = [16]float64(mgl64.Ident4())

// cameraViewpoint turns a camera node into a viewpoint. glTF cameras look
// down their local -Z axis; LookAt is one unit along it.
func cameraViewpoint(n *gltf.Node, cam *gltf.Camera, world mgl64.Mat4, ordinal int) Viewpoint {
	pos := world.Col(3).Vec3()
	forward := world.Mul4x1(mgl64.Vec4{0, 0, -1, 0}).Vec3()
	if forward.Len() > 0 {
		forward = forward.Normalize()
	} else {
		forward = mgl64.Vec3{0, 0, -1}
	}
	fov := defaultFieldOfView
	if cam.Perspective != nil && cam.Perspective.Yfov > 0 {
		fov = mgl64.RadToDeg(cam.Perspective.Yfov)
	}
	name := n.Name
	if name == "" {
		name = cam.Name
	}
	if name == "" {
		name = fmt.Sprintf("camera%d", ordinal)
	}
	return Viewpoint{
		Name:        name,
		Position:    pos,
		LookAt:      pos.Add(forward),
		FieldOfView: fov,
	}
}

// meshBounds unions the POSITION accessor min/max of every primitive.
func meshBounds(doc *gltf.Document, mesh *gltf.Mesh) (lo, hi mgl64.Vec3, ok bool) {
	for _, p := range mesh.Primitives {
		idx, has := p.Attributes[gltf.POSITION]
		if !has || idx < 0 || idx >= len(doc.Accessors) {
			continue
		}
		acc := doc.Accessors[idx]
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		pmin := mgl64.Vec3{acc.Min[0], acc.Min[1], acc.Min[2]}
		pmax := mgl64.Vec3{acc.Max[0], acc.Max[1], acc.Max[2]}
		if !ok {
			lo, hi, ok = pmin, pmax, true
			continue
		}
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], pmin[i])
			hi[i] = max(hi[i], pmax[i])
		}
	}
	return lo, hi, ok
}

func transformBox(name string, lo, hi mgl64.Vec3, world mgl64.Mat4) Box {
	b := Box{Name: name}
	for i := 0; i < 8; i++ {
		local := lo
		if i&1 != 0 {
			local[0] = hi[0]
		}
		if i&2 != 0 {
			local[1] = hi[1]
		}
		if i&4 != 0 {
			local[2] = hi[2]
		}
		b.Corners[i] = world.Mul4x1(local.Vec4(1)).Vec3()
	}
	return b
}
