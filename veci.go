/*

Integer 3D vectors for grid coordinates.

*/

package mcm

import "github.com/soypat/glgl/math/ms3"

// V3i is a 3D integer vector. It addresses samples and cubes of a Field
// and expresses mesh region origins and sizes.
type V3i [3]int

// Add adds two vectors. Return v = a + b.
func (a V3i) Add(b V3i) V3i {
	return V3i{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub subtracts two vectors. Return v = a - b.
func (a V3i) Sub(b V3i) V3i {
	return V3i{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// AddScalar adds a scalar to each component of the vector.
func (a V3i) AddScalar(b int) V3i {
	return V3i{a[0] + b, a[1] + b, a[2] + b}
}

// SubScalar subtracts a scalar from each component of the vector.
func (a V3i) SubScalar(b int) V3i {
	return V3i{a[0] - b, a[1] - b, a[2] - b}
}

// Vec converts V3i (integer) to ms3.Vec (float).
func (a V3i) Vec() ms3.Vec {
	return ms3.Vec{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2])}
}

// Min returns the smallest component of the vector.
func (a V3i) Min() int {
	m := a[0]
	if a[1] < m {
		m = a[1]
	}
	if a[2] < m {
		m = a[2]
	}
	return m
}
