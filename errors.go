package mcm

import "errors"

var (
	// ErrNilMeshBuffer is returned by mesh generation when the destination
	// buffer is nil.
	ErrNilMeshBuffer = errors.New("mcm: nil mesh buffer")
	// ErrOutOfBoundsX/Y/Z report a mesh region exceeding the field dimensions
	// on the named axis.
	ErrOutOfBoundsX = errors.New("mcm: mesh region exceeds field bounds on x axis")
	ErrOutOfBoundsY = errors.New("mcm: mesh region exceeds field bounds on y axis")
	ErrOutOfBoundsZ = errors.New("mcm: mesh region exceeds field bounds on z axis")
	// ErrNoIntersection reports a ray query that found no surface hit.
	// It is an expected outcome, not a fault.
	ErrNoIntersection = errors.New("mcm: ray does not intersect virtual mesh")
	// ErrFieldData reports a sample slice whose length does not match the
	// field dimensions.
	ErrFieldData = errors.New("mcm: field data does not match dimensions")
)

var axisErrors = [3]error{ErrOutOfBoundsX, ErrOutOfBoundsY, ErrOutOfBoundsZ}

func outOfBounds(axis int) error { return axisErrors[axis] }
