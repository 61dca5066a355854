package mcm

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// rayEpsilon rejects near-parallel ray/triangle determinants.
const rayEpsilon = 1e-8

// RayIntersectTriangle intersects a ray with a triangle (Möller–Trumbore).
// Only forward intersections are reported (t >= 0 along rayDir). rayDir need
// not be normalized; dist is in units of its length. Both faces intersect.
func RayIntersectTriangle(rayPos, rayDir ms3.Vec, tri ms3.Triangle) (point ms3.Vec, dist float32, hit bool) {
	e1 := ms3.Sub(tri[1], tri[0])
	e2 := ms3.Sub(tri[2], tri[0])
	p := ms3.Cross(rayDir, e2)
	det := ms3.Dot(e1, p)
	if math32.Abs(det) < rayEpsilon {
		return point, 0, false // ray parallel to triangle plane.
	}
	invDet := 1 / det
	tv := ms3.Sub(rayPos, tri[0])
	u := ms3.Dot(tv, p) * invDet
	if u < 0 || u > 1 {
		return point, 0, false
	}
	q := ms3.Cross(tv, e1)
	v := ms3.Dot(rayDir, q) * invDet
	if v < 0 || u+v > 1 {
		return point, 0, false
	}
	t := ms3.Dot(e2, q) * invDet
	if t < 0 {
		return point, 0, false
	}
	return ms3.Add(rayPos, ms3.Scale(t, rayDir)), t, true
}

// RayIntersectAABB intersects a ray with an axis-aligned box using the slab
// method. It returns the entry point and its ray parameter; a ray starting
// inside the box enters at its own origin (dist 0).
func RayIntersectAABB(box ms3.Box, rayPos, rayDir ms3.Vec) (point ms3.Vec, dist float32, hit bool) {
	pos := [3]float32{rayPos.X, rayPos.Y, rayPos.Z}
	dir := [3]float32{rayDir.X, rayDir.Y, rayDir.Z}
	min := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	max := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}
	tEnter, tExit := float32(0), math32.Inf(1)
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if pos[i] < min[i] || pos[i] > max[i] {
				return point, 0, false
			}
			continue
		}
		t1 := (min[i] - pos[i]) / dir[i]
		t2 := (max[i] - pos[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return point, 0, false
		}
	}
	return ms3.Add(rayPos, ms3.Scale(tEnter, rayDir)), tEnter, true
}

// RayIntersectVirtualMesh intersects a ray with the iso-surface of f without
// building a mesh. It steps through the field's cubes in increasing distance
// from rayPos, reconstructs each visited cube's triangles exactly as
// GenerateMesh would, and returns the nearest intersection point. The result
// matches meshing the whole field and ray-testing the triangle soup, at a
// cost proportional to the cubes actually traversed.
//
// ErrNoIntersection is returned when the ray leaves the field without a hit.
func RayIntersectVirtualMesh(f *Field, isoLevel float32, rayPos, rayDir ms3.Vec) (ms3.Vec, error) {
	// A ray without a usable direction cannot advance through the grid; the
	// traversal below would otherwise never leave its starting cube.
	if rayDir == (ms3.Vec{}) ||
		math32.IsNaN(rayDir.X) || math32.IsNaN(rayDir.Y) || math32.IsNaN(rayDir.Z) {
		return ms3.Vec{}, ErrNoIntersection
	}
	cubes := f.size.SubScalar(1) // grid of cubes, one less than samples.
	if cubes.Min() < 1 {
		return ms3.Vec{}, ErrNoIntersection
	}
	bounds := ms3.Box{Max: cubes.Vec()}
	entry, _, ok := RayIntersectAABB(bounds, rayPos, rayDir)
	if !ok {
		return ms3.Vec{}, ErrNoIntersection
	}

	pos := [3]float32{rayPos.X, rayPos.Y, rayPos.Z}
	dir := [3]float32{rayDir.X, rayDir.Y, rayDir.Z}
	ent := [3]float32{entry.X, entry.Y, entry.Z}

	// Amanatides-Woo voxel traversal state. cube is clamped so that grazing
	// entry points on the far boundary start inside the grid.
	var (
		cube   [3]int
		step   [3]int
		tNext  [3]float32 // ray parameter at the next boundary per axis.
		tDelta [3]float32
	)
	for i := 0; i < 3; i++ {
		c := int(math32.Floor(ent[i]))
		if c < 0 {
			c = 0
		} else if c > cubes[i]-1 {
			c = cubes[i] - 1
		}
		cube[i] = c
		switch {
		case dir[i] > 0:
			step[i] = 1
			tNext[i] = (float32(c+1) - pos[i]) / dir[i]
			tDelta[i] = 1 / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tNext[i] = (float32(c) - pos[i]) / dir[i]
			tDelta[i] = -1 / dir[i]
		default:
			tNext[i] = math32.Inf(1)
			tDelta[i] = math32.Inf(1)
		}
	}

	var (
		corners [8]float32
		scratch [3 * MaxCubeTriangles]ms3.Vec
	)
	for {
		f.CubeCorners(cube[0], cube[1], cube[2], &corners)
		nv := CaseGeometry(&corners, isoLevel, &scratch)
		if nv > 0 {
			cubePos := V3i{cube[0], cube[1], cube[2]}.Vec()
			best := math32.Inf(1)
			var bestPoint ms3.Vec
			for i := 0; i < nv; i += 3 {
				tri := ms3.Triangle{
					ms3.Add(cubePos, scratch[i]),
					ms3.Add(cubePos, scratch[i+1]),
					ms3.Add(cubePos, scratch[i+2]),
				}
				if p, d, hit := RayIntersectTriangle(rayPos, rayDir, tri); hit && d < best {
					best = d
					bestPoint = p
				}
			}
			// Cube intervals along the ray are ordered, and a cube's
			// triangles lie within it, so the first cube with a hit holds
			// the global nearest intersection.
			if !math32.IsInf(best, 1) {
				return bestPoint, nil
			}
		}
		// Advance to the neighboring cube across the closest boundary.
		axis := 0
		if tNext[1] < tNext[axis] {
			axis = 1
		}
		if tNext[2] < tNext[axis] {
			axis = 2
		}
		cube[axis] += step[axis]
		if cube[axis] < 0 || cube[axis] >= cubes[axis] {
			return ms3.Vec{}, ErrNoIntersection
		}
		tNext[axis] += tDelta[axis]
	}
}
