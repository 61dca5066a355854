package mcm

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// NormalMode selects how mesh generation fills the normal buffer.
type NormalMode uint8

const (
	// FaceNormals stores the flat geometric normal of each triangle,
	// replicated for its three vertices. Cheap, faceted shading.
	FaceNormals NormalMode = iota
	// VertexNormals stores the interpolated field gradient at each vertex,
	// normalized. Smooth shading without topological vertex welding.
	VertexNormals
)

// normalUp replaces degenerate (zero-length) normals so the buffer never
// holds NaN.
var normalUp = ms3.Vec{Z: 1}

// GenerateMeshFaceNormals meshes a field region with flat per-face normals.
func GenerateMeshFaceNormals(dst *MeshBuffer, f *Field, origin, size V3i, isoLevel float32) error {
	return GenerateMesh(dst, f, origin, size, isoLevel, FaceNormals)
}

// GenerateMeshVertexNormals meshes a field region with smooth per-vertex
// normals derived from the field gradient.
func GenerateMeshVertexNormals(dst *MeshBuffer, f *Field, origin, size V3i, isoLevel float32) error {
	return GenerateMesh(dst, f, origin, size, isoLevel, VertexNormals)
}

// GenerateMesh triangulates the iso-surface of f over the cube region
// [origin, origin+size) into dst, replacing any previous contents. size is
// measured in cubes, so the region reads samples up to origin+size inclusive
// and origin+size must not exceed the field dimensions minus one; violations
// return ErrOutOfBoundsX/Y/Z and leave dst untouched.
//
// Each cube contributes independent vertices (triangle soup, no welding
// across cube boundaries); indices are sequential, three per triangle.
// Normals follow the field gradient, pointing from the below-iso side of
// the surface toward the above-iso side.
func GenerateMesh(dst *MeshBuffer, f *Field, origin, size V3i, isoLevel float32, mode NormalMode) error {
	if dst == nil {
		return ErrNilMeshBuffer
	}
	if err := f.ValidRegion(origin, size); err != nil {
		return err
	}
	dst.Reset()
	var (
		corners [8]float32
		scratch [3 * MaxCubeTriangles]ms3.Vec
	)
	for z := origin[2]; z < origin[2]+size[2]; z++ {
		for y := origin[1]; y < origin[1]+size[1]; y++ {
			for x := origin[0]; x < origin[0]+size[0]; x++ {
				f.CubeCorners(x, y, z, &corners)
				nv := CaseGeometry(&corners, isoLevel, &scratch)
				if nv == 0 {
					continue
				}
				cubePos := V3i{x, y, z}.Vec()
				base := uint32(len(dst.vertices))
				for i := 0; i < nv; i++ {
					dst.vertices = append(dst.vertices, ms3.Add(cubePos, scratch[i]))
					dst.indices = append(dst.indices, base+uint32(i))
				}
				appendNormals(dst, f, mode, nv)
			}
		}
	}
	return nil
}

// appendNormals fills normals for the nv most recently appended vertices.
func appendNormals(dst *MeshBuffer, f *Field, mode NormalMode, nv int) {
	verts := dst.vertices[len(dst.vertices)-nv:]
	switch mode {
	case VertexNormals:
		for _, v := range verts {
			dst.normals = append(dst.normals, safeUnit(f.interpGradient(v)))
		}
	default:
		for i := 0; i+2 < nv; i += 3 {
			e1 := ms3.Sub(verts[i+1], verts[i])
			e2 := ms3.Sub(verts[i+2], verts[i])
			n := safeUnit(ms3.Cross(e1, e2))
			dst.normals = append(dst.normals, n, n, n)
		}
	}
}

func safeUnit(v ms3.Vec) ms3.Vec {
	const tiny = 1e-12
	n := ms3.Norm(v)
	if n <= tiny || math32.IsNaN(n) {
		return normalUp
	}
	return ms3.Scale(1/n, v)
}
