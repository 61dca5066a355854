package mcm

import "testing"

func TestTriangleTableShape(t *testing.T) {
	max := 0
	for i, edges := range mcTriangleTable {
		if len(edges)%3 != 0 {
			t.Errorf("case %d: %d edge indices, not a multiple of 3", i, len(edges))
		}
		for _, e := range edges {
			if e >= 12 {
				t.Errorf("case %d: edge index %d out of range", i, e)
			}
		}
		if nt := len(edges) / 3; nt > max {
			max = nt
		}
	}
	if max != MaxCubeTriangles {
		t.Errorf("mismatch marching cubes max triangles. got %d. want %d", max, MaxCubeTriangles)
	}
	if len(mcTriangleTable[0]) != 0 || len(mcTriangleTable[255]) != 0 {
		t.Error("fully inside/outside cases must emit no triangles")
	}
}

// Every case's triangles must use exactly the edges whose corners straddle
// the iso-level for that corner configuration, and no others.
func TestTriangleTableEdgesMatchClassification(t *testing.T) {
	for c := 0; c < 256; c++ {
		var want uint16
		for e, pair := range edgeCorners {
			a := c>>pair[0]&1 != 0
			b := c>>pair[1]&1 != 0
			if a != b {
				want |= 1 << e
			}
		}
		var got uint16
		for _, e := range mcTriangleTable[c] {
			got |= 1 << e
		}
		if got != want {
			t.Errorf("case %d: active edges %012b, want %012b", c, got, want)
		}
	}
}

func TestEdgeCornerTableAdjacency(t *testing.T) {
	for e, pair := range edgeCorners {
		a := cornerOffsets[pair[0]]
		b := cornerOffsets[pair[1]]
		diff := 0
		for axis := 0; axis < 3; axis++ {
			if a[axis] != b[axis] {
				diff++
			}
		}
		if diff != 1 {
			t.Errorf("edge %d joins non-adjacent corners %d and %d", e, pair[0], pair[1])
		}
	}
}
