package mcm

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRayIntersectTriangle(t *testing.T) {
	tri := ms3.Triangle{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	pos := ms3.Vec{X: 0.25, Y: 0.25, Z: 1}
	down := ms3.Vec{Z: -1}

	p, d, hit := RayIntersectTriangle(pos, down, tri)
	if !hit {
		t.Fatal("ray aimed at triangle interior must hit")
	}
	if !closeTo(d, 1, 1e-6) {
		t.Errorf("hit distance %v, want 1", d)
	}
	want := ms3.Vec{X: 0.25, Y: 0.25}
	if !closeTo(p.X, want.X, 1e-6) || !closeTo(p.Y, want.Y, 1e-6) || !closeTo(p.Z, 0, 1e-6) {
		t.Errorf("hit point %v, want %v", p, want)
	}

	// Distance is in units of the direction length.
	_, d2, hit := RayIntersectTriangle(pos, ms3.Scale(2, down), tri)
	if !hit || !closeTo(d2, 0.5, 1e-6) {
		t.Errorf("doubled direction: dist %v, want 0.5", d2)
	}

	// Back face hits too.
	if _, _, hit := RayIntersectTriangle(ms3.Vec{X: 0.25, Y: 0.25, Z: -1}, ms3.Vec{Z: 1}, tri); !hit {
		t.Error("back face must intersect")
	}

	if _, _, hit := RayIntersectTriangle(pos, ms3.Vec{Z: 1}, tri); hit {
		t.Error("triangle behind the ray must not hit")
	}
	if _, _, hit := RayIntersectTriangle(pos, ms3.Vec{X: 1}, tri); hit {
		t.Error("ray parallel to the triangle plane must not hit")
	}
	if _, _, hit := RayIntersectTriangle(ms3.Vec{X: 2, Y: 2, Z: 1}, down, tri); hit {
		t.Error("ray outside the triangle must not hit")
	}
}

// oracleRayTriangle runs the same intersection in float64 precision.
func oracleRayTriangle(pos, dir r3.Vec, a, b, c r3.Vec) (float64, bool) {
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	p := r3.Cross(dir, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	invDet := 1 / det
	tv := r3.Sub(pos, a)
	u := r3.Dot(tv, p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(tv, e1)
	v := r3.Dot(dir, q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := r3.Dot(e2, q) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}

func toR3(v ms3.Vec) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func TestRayIntersectTriangleOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rv := func() ms3.Vec {
		return ms3.Vec{X: rng.Float32()*4 - 2, Y: rng.Float32()*4 - 2, Z: rng.Float32()*4 - 2}
	}
	for iter := 0; iter < 500; iter++ {
		tri := ms3.Triangle{rv(), rv(), rv()}
		pos := ms3.Add(rv(), ms3.Vec{Z: 6})
		// Aim at the centroid so roughly half the rays hit.
		centroid := ms3.Scale(1./3., ms3.Add(tri[0], ms3.Add(tri[1], tri[2])))
		dir := ms3.Sub(ms3.Add(centroid, ms3.Scale(0.8, rv())), pos)

		_, d32, hit32 := RayIntersectTriangle(pos, dir, tri)
		d64, hit64 := oracleRayTriangle(toR3(pos), toR3(dir), toR3(tri[0]), toR3(tri[1]), toR3(tri[2]))
		if hit32 != hit64 {
			// Float32 may legitimately disagree on razor-thin margins; only
			// flag disagreements with a clear float64 margin.
			if d64 > 1e-3 {
				t.Fatalf("iter %d: hit=%v but float64 oracle says %v (t=%v)", iter, hit32, hit64, d64)
			}
			continue
		}
		if hit32 && math.Abs(float64(d32)-d64) > 1e-3 {
			t.Fatalf("iter %d: dist %v, float64 oracle %v", iter, d32, d64)
		}
	}
}

func TestRayIntersectAABB(t *testing.T) {
	box := ms3.Box{Max: ms3.Vec{X: 2, Y: 2, Z: 2}}

	p, d, hit := RayIntersectAABB(box, ms3.Vec{X: -1, Y: 1, Z: 1}, ms3.Vec{X: 1})
	if !hit || !closeTo(d, 1, 1e-6) {
		t.Fatalf("axis ray: hit=%v dist=%v, want hit at dist 1", hit, d)
	}
	if !closeTo(p.X, 0, 1e-6) || !closeTo(p.Y, 1, 1e-6) || !closeTo(p.Z, 1, 1e-6) {
		t.Errorf("entry point %v, want (0,1,1)", p)
	}

	// Origin inside: the entry point is the origin itself.
	inside := ms3.Vec{X: 1, Y: 1, Z: 1}
	p, d, hit = RayIntersectAABB(box, inside, ms3.Vec{X: 1, Y: 0.2, Z: -0.1})
	if !hit || d != 0 || p != inside {
		t.Errorf("inside origin: point=%v dist=%v hit=%v, want origin at dist 0", p, d, hit)
	}

	if _, _, hit = RayIntersectAABB(box, ms3.Vec{X: -1, Y: 3, Z: 1}, ms3.Vec{X: 1}); hit {
		t.Error("ray sliding past the box must miss")
	}
	if _, _, hit = RayIntersectAABB(box, ms3.Vec{X: 3, Y: 1, Z: 1}, ms3.Vec{X: 1}); hit {
		t.Error("box behind the ray must miss")
	}
	// Zero direction component outside the slab.
	if _, _, hit = RayIntersectAABB(box, ms3.Vec{X: 1, Y: 5, Z: 1}, ms3.Vec{X: 1}); hit {
		t.Error("axis-parallel ray outside the slab must miss")
	}
}

func TestRayCastSphere(t *testing.T) {
	f, center, radius := testSphere()

	got, err := RayIntersectVirtualMesh(f, 0, ms3.Vec{X: -5, Y: center.Y, Z: center.Z}, ms3.Vec{X: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := ms3.Vec{X: center.X - radius, Y: center.Y, Z: center.Z}
	if ms3.Norm(ms3.Sub(got, want)) > 0.1 {
		t.Errorf("sphere hit %v, want %v", got, want)
	}

	// Pointing away from the grid.
	_, err = RayIntersectVirtualMesh(f, 0, ms3.Vec{X: -5, Y: center.Y, Z: center.Z}, ms3.Vec{X: -1})
	if !errors.Is(err, ErrNoIntersection) {
		t.Errorf("ray pointing away: %v, want ErrNoIntersection", err)
	}

	// Through the grid but past the sphere.
	_, err = RayIntersectVirtualMesh(f, 0, ms3.Vec{X: -5, Y: 0.5, Z: 0.5}, ms3.Vec{X: 1})
	if !errors.Is(err, ErrNoIntersection) {
		t.Errorf("ray grazing empty cubes: %v, want ErrNoIntersection", err)
	}

	// From inside the sphere the far surface is hit from the back side.
	got, err = RayIntersectVirtualMesh(f, 0, center, ms3.Vec{X: 1})
	if err != nil {
		t.Fatal(err)
	}
	want = ms3.Vec{X: center.X + radius, Y: center.Y, Z: center.Z}
	if ms3.Norm(ms3.Sub(got, want)) > 0.1 {
		t.Errorf("inside-out hit %v, want %v", got, want)
	}
}

// A zero or NaN direction must report a miss instead of spinning in the
// starting cube forever. Callers computing dir = target - origin hit this
// whenever target equals origin.
func TestRayCastDegenerateDirection(t *testing.T) {
	f, center, _ := testSphere()
	done := make(chan error, 1)
	go func() {
		_, err := RayIntersectVirtualMesh(f, 0, center, ms3.Vec{})
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrNoIntersection) {
			t.Errorf("zero direction: %v, want ErrNoIntersection", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("zero direction ray never returned")
	}

	nan := math32.NaN()
	_, err := RayIntersectVirtualMesh(f, 0, center, ms3.Vec{X: nan, Y: nan, Z: nan})
	if !errors.Is(err, ErrNoIntersection) {
		t.Errorf("NaN direction: %v, want ErrNoIntersection", err)
	}
}

func TestRayCastDegenerateField(t *testing.T) {
	// A field a single sample thick has no cubes to traverse.
	f := NewField(V3i{1, 5, 5})
	_, err := RayIntersectVirtualMesh(f, 0, ms3.Vec{X: -1, Y: 2, Z: 2}, ms3.Vec{X: 1})
	if !errors.Is(err, ErrNoIntersection) {
		t.Errorf("cube-less field: %v, want ErrNoIntersection", err)
	}
}

// blobField builds a field from the max of several spherical lobes, giving
// an irregular closed surface at iso-level 0.
func blobField(rng *rand.Rand, size V3i) *Field {
	type lobe struct {
		center ms3.Vec
		radius float32
	}
	lobes := make([]lobe, 3)
	for i := range lobes {
		lobes[i] = lobe{
			center: ms3.Vec{
				X: 3 + rng.Float32()*5,
				Y: 3 + rng.Float32()*5,
				Z: 3 + rng.Float32()*5,
			},
			radius: 1.5 + rng.Float32()*1.5,
		}
	}
	f := NewField(size)
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				p := V3i{x, y, z}.Vec()
				v := math32.Inf(-1)
				for _, l := range lobes {
					if d := l.radius - ms3.Norm(ms3.Sub(p, l.center)); d > v {
						v = d
					}
				}
				f.Set(x, y, z, v)
			}
		}
	}
	return f
}

// soupRayCast is the brute-force reference: mesh the whole field and test
// the ray against every triangle.
func soupRayCast(f *Field, isoLevel float32, rayPos, rayDir ms3.Vec) (ms3.Vec, error) {
	buf := NewMeshBuffer()
	if err := GenerateMesh(buf, f, V3i{}, f.Size().SubScalar(1), isoLevel, FaceNormals); err != nil {
		return ms3.Vec{}, err
	}
	best := math32.Inf(1)
	var bestPoint ms3.Vec
	for _, tri := range buf.AppendTriangles(nil) {
		if p, d, hit := RayIntersectTriangle(rayPos, rayDir, tri); hit && d < best {
			best = d
			bestPoint = p
		}
	}
	if math32.IsInf(best, 1) {
		return ms3.Vec{}, ErrNoIntersection
	}
	return bestPoint, nil
}

// The virtual mesh must agree with meshing the field and ray-testing the
// resulting triangle soup, hit for hit.
func TestRayCastMatchesSoup(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 3; trial++ {
		f := blobField(rng, V3i{12, 12, 12})
		gridCenter := ms3.Scale(0.5, f.Size().SubScalar(1).Vec())
		for i := 0; i < 50; i++ {
			// Origin on a sphere well outside the grid, aimed near its center.
			u := ms3.Unit(ms3.Vec{
				X: rng.Float32()*2 - 1,
				Y: rng.Float32()*2 - 1,
				Z: rng.Float32()*2 - 1,
			})
			origin := ms3.Add(gridCenter, ms3.Scale(20, u))
			target := ms3.Add(gridCenter, ms3.Vec{
				X: rng.Float32()*6 - 3,
				Y: rng.Float32()*6 - 3,
				Z: rng.Float32()*6 - 3,
			})
			dir := ms3.Sub(target, origin)

			got, gotErr := RayIntersectVirtualMesh(f, 0, origin, dir)
			want, wantErr := soupRayCast(f, 0, origin, dir)
			if (gotErr == nil) != (wantErr == nil) {
				t.Fatalf("trial %d ray %d: virtual err=%v, soup err=%v", trial, i, gotErr, wantErr)
			}
			if gotErr == nil && ms3.Norm(ms3.Sub(got, want)) > 1e-3 {
				t.Fatalf("trial %d ray %d: virtual hit %v, soup hit %v", trial, i, got, want)
			}
		}
	}
}

func BenchmarkRayIntersectVirtualMesh(b *testing.B) {
	f, center, _ := testSphere()
	origin := ms3.Vec{X: -5, Y: center.Y, Z: center.Z}
	dir := ms3.Vec{X: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RayIntersectVirtualMesh(f, 0, origin, dir); err != nil {
			b.Fatal(err)
		}
	}
}
