package mcm

import "github.com/soypat/glgl/math/ms3"

// CaseIndex classifies a cube's 8 corner samples against the iso-level.
// Bit i of the result is set iff corners[i] > isoLevel. Indices 0 and 255
// mean the cube emits no triangles.
func CaseIndex(corners *[8]float32, isoLevel float32) uint8 {
	var c uint8
	for i, v := range corners {
		if v > isoLevel {
			c |= 1 << i
		}
	}
	return c
}

// CaseGeometry emits the triangle vertices for a single cube in local cube
// space [0,1]^3. It writes three vertices per triangle into dst in the
// winding order of the case table and returns the number of vertices
// written: 0, 3, ..., up to 3*MaxCubeTriangles.
//
// Crossing points are found by linear interpolation along each active edge,
// t = (isoLevel-a)/(b-a). A flat edge (a == b) cannot be solved for t and
// falls back to the edge midpoint.
func CaseGeometry(corners *[8]float32, isoLevel float32, dst *[3 * MaxCubeTriangles]ms3.Vec) int {
	edges := mcTriangleTable[CaseIndex(corners, isoLevel)]
	var (
		crossings [12]ms3.Vec
		solved    uint16
	)
	for i, e := range edges {
		if solved&(1<<e) == 0 {
			crossings[e] = edgeCrossing(corners, isoLevel, e)
			solved |= 1 << e
		}
		dst[i] = crossings[e]
	}
	return len(edges)
}

func edgeCrossing(corners *[8]float32, isoLevel float32, edge uint8) ms3.Vec {
	ca, cb := edgeCorners[edge][0], edgeCorners[edge][1]
	va, vb := corners[ca], corners[cb]
	t := float32(0.5)
	if va != vb {
		t = (isoLevel - va) / (vb - va)
	}
	pa, pb := cornerVecs[ca], cornerVecs[cb]
	return ms3.Add(pa, ms3.Scale(t, ms3.Sub(pb, pa)))
}
