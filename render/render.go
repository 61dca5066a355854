// Package render streams marching-cubes triangles from a scalar field and
// writes meshes in binary STL format.
package render

import (
	"github.com/soypat/glgl/math/ms3"
)

// Renderer produces triangles in batches until io.EOF.
type Renderer interface {
	ReadTriangles(t []ms3.Triangle) (int, error)
}
