package mcm

import "github.com/soypat/glgl/math/ms3"

// MeshBuffer accumulates the vertices, normals and indices produced by one
// mesh generation call. A buffer is reusable: generation clears it before
// writing. It must not be populated by two generation calls concurrently;
// callers that mesh in parallel use one buffer per goroutine.
type MeshBuffer struct {
	vertices []ms3.Vec
	normals  []ms3.Vec
	indices  []uint32
}

// NewMeshBuffer returns an empty mesh buffer.
func NewMeshBuffer() *MeshBuffer {
	return &MeshBuffer{}
}

// VertexCount returns the number of vertices stored in the buffer.
func (b *MeshBuffer) VertexCount() int { return len(b.vertices) }

// NormalCount returns the number of normals stored in the buffer. It equals
// VertexCount after a successful generation in either normal mode.
func (b *MeshBuffer) NormalCount() int { return len(b.normals) }

// IndexCount returns the number of triangle corner indices in the buffer.
func (b *MeshBuffer) IndexCount() int { return len(b.indices) }

// CopyVertices copies the vertices into dst and returns the number of
// elements copied. dst should have room for VertexCount elements.
func (b *MeshBuffer) CopyVertices(dst []ms3.Vec) int { return copy(dst, b.vertices) }

// CopyNormals copies the normals into dst and returns the number of
// elements copied.
func (b *MeshBuffer) CopyNormals(dst []ms3.Vec) int { return copy(dst, b.normals) }

// CopyIndices copies the triangle indices into dst and returns the number of
// elements copied.
func (b *MeshBuffer) CopyIndices(dst []uint32) int { return copy(dst, b.indices) }

// Reset empties the buffer, keeping its allocations for reuse.
func (b *MeshBuffer) Reset() {
	b.vertices = b.vertices[:0]
	b.normals = b.normals[:0]
	b.indices = b.indices[:0]
}

// AppendTriangles appends the buffer's indexed triangles to dst and returns
// the extended slice.
func (b *MeshBuffer) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := 0; i+2 < len(b.indices); i += 3 {
		dst = append(dst, ms3.Triangle{
			b.vertices[b.indices[i]],
			b.vertices[b.indices[i+1]],
			b.vertices[b.indices[i+2]],
		})
	}
	return dst
}
