package render

import (
	"io"

	"github.com/mcmesh/mcm"
	"github.com/soypat/glgl/math/ms3"
)

// FieldRenderer streams the marching-cubes triangulation of a field region
// cube by cube, without accumulating a mesh buffer. Triangles are emitted in
// field space, identical to those mcm.GenerateMesh stores.
type FieldRenderer struct {
	f         *mcm.Field
	origin    mcm.V3i
	size      mcm.V3i
	isoLevel  float32
	cursor    int // next cube in row-major region order.
	unwritten triangleBuffer
}

// NewFieldRenderer returns a renderer over the whole field at the given
// iso-level. Fields smaller than one cube per axis render nothing.
func NewFieldRenderer(f *mcm.Field, isoLevel float32) *FieldRenderer {
	size := f.Size().SubScalar(1)
	for i := range size {
		if size[i] < 0 {
			size[i] = 0
		}
	}
	r, err := NewFieldRegionRenderer(f, mcm.V3i{}, size, isoLevel)
	if err != nil {
		panic(err) // full-field region is always valid.
	}
	return r
}

// NewFieldRegionRenderer returns a renderer over the cube region
// [origin, origin+size) of f, validated the same way mcm.GenerateMesh
// validates its region.
func NewFieldRegionRenderer(f *mcm.Field, origin, size mcm.V3i, isoLevel float32) (*FieldRenderer, error) {
	if err := f.ValidRegion(origin, size); err != nil {
		return nil, err
	}
	return &FieldRenderer{
		f:        f,
		origin:   origin,
		size:     size,
		isoLevel: isoLevel,
	}, nil
}

// ReadTriangles writes triangles rendered from the field into the argument
// buffer. It returns the number of triangles written and io.EOF once the
// region is exhausted.
func (fr *FieldRenderer) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	if fr.unwritten.Len() > 0 {
		n += fr.unwritten.Read(dst[n:])
		if n == len(dst) {
			return n, nil
		}
	}
	total := fr.size[0] * fr.size[1] * fr.size[2]
	if fr.cursor >= total && fr.unwritten.Len() == 0 {
		if n > 0 {
			return n, nil // report EOF on the next call, without data.
		}
		return 0, io.EOF
	}
	var (
		corners [8]float32
		scratch [3 * mcm.MaxCubeTriangles]ms3.Vec
		spill   [mcm.MaxCubeTriangles]ms3.Triangle
	)
	for fr.cursor < total {
		cube := fr.cubeAt(fr.cursor)
		fr.f.CubeCorners(cube[0], cube[1], cube[2], &corners)
		nv := mcm.CaseGeometry(&corners, fr.isoLevel, &scratch)
		fr.cursor++
		if nv == 0 {
			continue
		}
		cubePos := cube.Vec()
		nt := nv / 3
		if n+nt > len(dst) {
			// Not enough room left in dst: spill this cube's triangles and
			// hand them out on the next call.
			fillTriangles(spill[:nt], cubePos, scratch[:nv])
			fr.unwritten.Write(spill[:nt])
			n += fr.unwritten.Read(dst[n:])
			return n, nil
		}
		fillTriangles(dst[n:n+nt], cubePos, scratch[:nv])
		n += nt
		if n == len(dst) {
			return n, nil
		}
	}
	return n, nil
}

func (fr *FieldRenderer) cubeAt(cursor int) mcm.V3i {
	x := cursor % fr.size[0]
	y := cursor / fr.size[0] % fr.size[1]
	z := cursor / (fr.size[0] * fr.size[1])
	return fr.origin.Add(mcm.V3i{x, y, z})
}

func fillTriangles(dst []ms3.Triangle, cubePos ms3.Vec, verts []ms3.Vec) {
	for i := range dst {
		dst[i] = ms3.Triangle{
			ms3.Add(cubePos, verts[3*i]),
			ms3.Add(cubePos, verts[3*i+1]),
			ms3.Add(cubePos, verts[3*i+2]),
		}
	}
}

// triangleBuffer holds triangles that did not fit in a caller's slice until
// the next ReadTriangles call drains them.
type triangleBuffer struct {
	buf []ms3.Triangle
}

func (b *triangleBuffer) Read(t []ms3.Triangle) int {
	n := copy(t, b.buf)
	b.buf = b.buf[n:]
	return n
}

func (b *triangleBuffer) Write(t []ms3.Triangle) int {
	b.buf = append(b.buf, t...)
	return len(t)
}

func (b *triangleBuffer) Len() int { return len(b.buf) }
