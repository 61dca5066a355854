// Package mcm implements marching-cubes triangulation of regular 3D scalar
// fields and ray casting against the implicit surface without building a mesh.
//
// A Field stores sizeX*sizeY*sizeZ float32 samples. A mesh region is given
// in cube units: a region of size S spans S+1 samples per axis. All geometry
// is emitted in field space, where sample (x,y,z) sits at position (x,y,z).
package mcm

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Field is a 3D scalar field sampled on a regular grid. Samples are stored
// in row-major order: index = x + y*sizeX + z*sizeX*sizeY.
//
// The field is read-only from the point of view of meshing and ray queries.
// Concurrent reads are safe as long as no caller mutates the data.
type Field struct {
	size V3i
	data []float32
}

// NewField allocates a zero-valued field of the given sample dimensions.
func NewField(size V3i) *Field {
	if size.Min() < 1 {
		panic("field dimensions must be 1 or larger")
	}
	return &Field{
		size: size,
		data: make([]float32, size[0]*size[1]*size[2]),
	}
}

// MakeField wraps an existing row-major sample slice without copying it.
// The slice length must match the product of the dimensions.
func MakeField(size V3i, data []float32) (*Field, error) {
	if size.Min() < 1 {
		return nil, fmt.Errorf("%w: dimensions %v", ErrFieldData, size)
	}
	if want := size[0] * size[1] * size[2]; len(data) != want {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrFieldData, len(data), want)
	}
	return &Field{size: size, data: data}, nil
}

// Size returns the sample dimensions of the field.
func (f *Field) Size() V3i { return f.size }

// Data returns the backing sample slice in row-major order.
func (f *Field) Data() []float32 { return f.data }

// At returns the sample at grid coordinate (x,y,z).
// Coordinates outside [0,size) panic.
func (f *Field) At(x, y, z int) float32 {
	f.checkIndex(x, y, z)
	return f.data[x+y*f.size[0]+z*f.size[0]*f.size[1]]
}

// Set stores a sample at grid coordinate (x,y,z).
// Coordinates outside [0,size) panic.
func (f *Field) Set(x, y, z int, v float32) {
	f.checkIndex(x, y, z)
	f.data[x+y*f.size[0]+z*f.size[0]*f.size[1]] = v
}

func (f *Field) checkIndex(x, y, z int) {
	if x < 0 || x >= f.size[0] || y < 0 || y >= f.size[1] || z < 0 || z >= f.size[2] {
		panic(fmt.Sprintf("field index (%d,%d,%d) out of range %v", x, y, z, f.size))
	}
}

// ValidRegion checks that the cube region [origin, origin+size) lies within
// the field. The region touches samples [origin, origin+size] inclusive, so
// origin+size must not exceed the field dimensions minus one. Violations
// return ErrOutOfBoundsX/Y/Z for the offending axis.
func (f *Field) ValidRegion(origin, size V3i) error {
	for axis := 0; axis < 3; axis++ {
		if origin[axis] < 0 || size[axis] < 0 || origin[axis]+size[axis] > f.size[axis]-1 {
			return outOfBounds(axis)
		}
	}
	return nil
}

// CubeCorners gathers the 8 corner samples of the cube whose minimum sample
// is (x,y,z), in marching-cubes corner order. The cube must lie within the
// field; see ValidRegion.
func (f *Field) CubeCorners(x, y, z int, dst *[8]float32) {
	sx, sxy := f.size[0], f.size[0]*f.size[1]
	base := x + y*sx + z*sxy
	dst[0] = f.data[base]
	dst[1] = f.data[base+1]
	dst[2] = f.data[base+1+sx]
	dst[3] = f.data[base+sx]
	dst[4] = f.data[base+sxy]
	dst[5] = f.data[base+1+sxy]
	dst[6] = f.data[base+1+sx+sxy]
	dst[7] = f.data[base+sx+sxy]
}

// gradientAt returns the central-difference gradient at a lattice node,
// falling back to one-sided differences on the field border.
func (f *Field) gradientAt(x, y, z int) ms3.Vec {
	return ms3.Vec{
		X: f.axisDiff(x, y, z, 0),
		Y: f.axisDiff(x, y, z, 1),
		Z: f.axisDiff(x, y, z, 2),
	}
}

func (f *Field) axisDiff(x, y, z, axis int) float32 {
	c := V3i{x, y, z}
	lo, hi := c, c
	if c[axis] > 0 {
		lo[axis]--
	}
	if c[axis] < f.size[axis]-1 {
		hi[axis]++
	}
	span := hi[axis] - lo[axis]
	if span == 0 {
		return 0 // single-sample axis has no gradient.
	}
	d := f.At(hi[0], hi[1], hi[2]) - f.At(lo[0], lo[1], lo[2])
	return d / float32(span)
}

// interpGradient trilinearly interpolates lattice gradients at an arbitrary
// position inside the field. Positions outside the field are clamped.
func (f *Field) interpGradient(p ms3.Vec) ms3.Vec {
	x, fx := f.cellAndFrac(p.X, 0)
	y, fy := f.cellAndFrac(p.Y, 1)
	z, fz := f.cellAndFrac(p.Z, 2)

	var g [8]ms3.Vec
	for i, off := range cornerOffsets {
		g[i] = f.gradientAt(x+off[0], y+off[1], z+off[2])
	}
	// Trilinear blend in marching-cubes corner order.
	bottom := bilerp(g[0], g[1], g[3], g[2], fx, fy)
	top := bilerp(g[4], g[5], g[7], g[6], fx, fy)
	return ms3.Add(ms3.Scale(1-fz, bottom), ms3.Scale(fz, top))
}

// cellAndFrac splits a coordinate into a base cell index and the fractional
// offset within that cell, clamped so that the cell has a +1 neighbor.
func (f *Field) cellAndFrac(v float32, axis int) (int, float32) {
	hi := f.size[axis] - 2
	if hi < 0 {
		return 0, 0
	}
	c := int(math32.Floor(v))
	if c < 0 {
		c = 0
	} else if c > hi {
		c = hi
	}
	fr := v - float32(c)
	if fr < 0 {
		fr = 0
	} else if fr > 1 {
		fr = 1
	}
	return c, fr
}

func bilerp(v00, v10, v01, v11 ms3.Vec, fx, fy float32) ms3.Vec {
	a := ms3.Add(ms3.Scale(1-fx, v00), ms3.Scale(fx, v10))
	b := ms3.Add(ms3.Scale(1-fx, v01), ms3.Scale(fx, v11))
	return ms3.Add(ms3.Scale(1-fy, a), ms3.Scale(fy, b))
}
