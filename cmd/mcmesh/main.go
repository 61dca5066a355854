// Command mcmesh samples a constructive solid scene into a scalar field,
// runs marching cubes over it and writes the result as a binary STL file,
// optionally with a PNG preview render.
//
// The scene is described in YAML:
//
//	resolution: 100
//	iso: 0
//	spheres:
//	  - center: [0, 0, 0]
//	    radius: 8
//	boxes:
//	  - center: [0, 0, -6]
//	    size: [20, 20, 4]
//	    round: 0.5
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/deadsy/sdfx/sdf"
	"github.com/fogleman/fauxgl"
	"github.com/mcmesh/mcm"
	"github.com/mcmesh/mcm/render"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type sceneConfig struct {
	// Resolution is the number of field samples along the longest scene axis.
	Resolution int     `yaml:"resolution"`
	Iso        float32 `yaml:"iso"`
	Spheres    []struct {
		Center [3]float64 `yaml:"center"`
		Radius float64    `yaml:"radius"`
	} `yaml:"spheres"`
	Boxes []struct {
		Center [3]float64 `yaml:"center"`
		Size   [3]float64 `yaml:"size"`
		Round  float64    `yaml:"round"`
	} `yaml:"boxes"`
}

func main() {
	var (
		scenePath = flag.String("scene", "", "YAML scene description (required)")
		outPath   = flag.String("o", "out.stl", "output STL path")
		pngPath   = flag.String("png", "", "write a PNG preview render to this path")
		smooth    = flag.Bool("smooth", false, "generate per-vertex gradient normals instead of face normals")
	)
	flag.Parse()
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	if *scenePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(log, *scenePath, *outPath, *pngPath, *smooth); err != nil {
		log.Fatal("mcmesh failed", zap.Error(err))
	}
}

func run(log *zap.Logger, scenePath, outPath, pngPath string, smooth bool) error {
	cfg, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	scene, err := buildScene(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	f, origin, cell := sampleScene(scene, cfg.Resolution)
	size := f.Size()
	log.Info("scene sampled",
		zap.String("scene", scenePath),
		zap.Ints("samples", []int{size[0], size[1], size[2]}),
		zap.Float64("cell", cell),
		zap.Duration("elapsed", time.Since(start)))

	mode := mcm.FaceNormals
	if smooth {
		mode = mcm.VertexNormals
	}
	start = time.Now()
	buf := mcm.NewMeshBuffer()
	if err := mcm.GenerateMesh(buf, f, mcm.V3i{}, size.SubScalar(1), cfg.Iso, mode); err != nil {
		return fmt.Errorf("meshing scene: %w", err)
	}
	tris := buf.AppendTriangles(nil)
	toWorld(tris, origin, float32(cell))
	log.Info("mesh generated",
		zap.Int("triangles", len(tris)),
		zap.Bool("smooth", smooth),
		zap.Duration("elapsed", time.Since(start)))

	fp, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, err := render.WriteTriangles(fp, tris)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	log.Info("STL written", zap.String("path", outPath), zap.Int("bytes", n))

	if pngPath != "" {
		if err := stlToPNG(outPath, pngPath); err != nil {
			return fmt.Errorf("rendering preview: %w", err)
		}
		log.Info("preview written", zap.String("path", pngPath))
	}
	return nil
}

func loadScene(path string) (*sceneConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &sceneConfig{Resolution: 100}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Resolution < 2 {
		return nil, fmt.Errorf("resolution %d too small", cfg.Resolution)
	}
	if len(cfg.Spheres)+len(cfg.Boxes) == 0 {
		return nil, errors.New("scene contains no solids")
	}
	return cfg, nil
}

func buildScene(cfg *sceneConfig) (sdf.SDF3, error) {
	var solids []sdf.SDF3
	for _, sp := range cfg.Spheres {
		s, err := sdf.Sphere3D(sp.Radius)
		if err != nil {
			return nil, fmt.Errorf("sphere: %w", err)
		}
		solids = append(solids, translate(s, sp.Center))
	}
	for _, bx := range cfg.Boxes {
		s, err := sdf.Box3D(sdf.V3{X: bx.Size[0], Y: bx.Size[1], Z: bx.Size[2]}, bx.Round)
		if err != nil {
			return nil, fmt.Errorf("box: %w", err)
		}
		solids = append(solids, translate(s, bx.Center))
	}
	if len(solids) == 1 {
		return solids[0], nil
	}
	return sdf.Union3D(solids...), nil
}

func translate(s sdf.SDF3, center [3]float64) sdf.SDF3 {
	if center == [3]float64{} {
		return s
	}
	return sdf.Transform3D(s, sdf.Translate3d(sdf.V3{X: center[0], Y: center[1], Z: center[2]}))
}

// sampleScene evaluates the signed distance of the scene on a regular grid
// covering its bounding box plus a one-cell margin, so the surface never
// touches the field border. Field values are the negated distance: positive
// inside the solid, matching an iso-level of zero.
func sampleScene(s sdf.SDF3, resolution int) (f *mcm.Field, origin sdf.V3, cell float64) {
	bb := s.BoundingBox()
	bbSize := bb.Size()
	cell = math.Max(bbSize.X, math.Max(bbSize.Y, bbSize.Z)) / float64(resolution-1)
	origin = bb.Min.Sub(sdf.V3{X: cell, Y: cell, Z: cell})
	var size mcm.V3i
	for i, d := range [3]float64{bbSize.X, bbSize.Y, bbSize.Z} {
		size[i] = int(math.Ceil(d/cell)) + 3
	}
	f = mcm.NewField(size)
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				p := sdf.V3{
					X: origin.X + float64(x)*cell,
					Y: origin.Y + float64(y)*cell,
					Z: origin.Z + float64(z)*cell,
				}
				f.Set(x, y, z, float32(-s.Evaluate(p)))
			}
		}
	}
	return f, origin, cell
}

// toWorld maps grid-space triangles back to scene coordinates.
func toWorld(tris []ms3.Triangle, origin sdf.V3, cell float32) {
	o := ms3.Vec{X: float32(origin.X), Y: float32(origin.Y), Z: float32(origin.Z)}
	for i := range tris {
		for j := range tris[i] {
			tris[i][j] = ms3.Add(o, ms3.Scale(cell, tris[i][j]))
		}
	}
}

func stlToPNG(stlName, outputname string) error {
	mesh, err := fauxgl.LoadSTL(stlName)
	if err != nil {
		return err
	}
	const (
		width, height = 1920, 1080 // output width and height in pixels
		scale         = 1          // optional supersampling
		fovy          = 30         // vertical field of view in degrees
		near, far     = 1, 10
	)
	var (
		eye    = fauxgl.V(3, 3, 3)                    // camera position
		center = fauxgl.V(0, 0, 0)                    // view center position
		up     = fauxgl.V(0, 0, 1)                    // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize() // light direction
		color  = fauxgl.HexColor("#468966")           // object color
	)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	image := context.Image()
	image = resize.Resize(width, height, image, resize.Bilinear)
	return fauxgl.SavePNG(outputname, image)
}
