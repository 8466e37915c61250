package gltfio

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrInvalidAccessor means an accessor index, layout or component type does
// not fit the data it should describe.
var ErrInvalidAccessor = errors.New("invalid accessor")

// Accessor returns accessor i after checking it points inside its buffer
// view.
func Accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInvalidAccessor, i, len(doc.Accessors))
	}
	acr := doc.Accessors[i]
	if acr.BufferView != nil {
		bv := *acr.BufferView
		if bv < 0 || bv >= len(doc.BufferViews) {
			return nil, fmt.Errorf("%w: accessor %d: buffer view %d of %d", ErrInvalidAccessor, i, bv, len(doc.BufferViews))
		}
		if acr.ByteOffset < 0 || acr.ByteOffset > doc.BufferViews[bv].ByteLength {
			return nil, fmt.Errorf("%w: accessor %d: offset %d past buffer view %d", ErrInvalidAccessor, i, acr.ByteOffset, bv)
		}
	}
	return acr, nil
}

// read looks accessor i up and decodes it with fn.
func read[T any](doc *gltf.Document, i int, fn func(*gltf.Document, *gltf.Accessor, T) (T, error)) (T, error) {
	var zero T
	acr, err := Accessor(doc, i)
	if err != nil {
		return zero, err
	}
	out, err := fn(doc, acr, zero)
	if err != nil {
		return zero, fmt.Errorf("%w: accessor %d: %v", ErrInvalidAccessor, i, err)
	}
	return out, nil
}

// Positions reads a float VEC3 accessor.
func Positions(doc *gltf.Document, i int) ([][3]float32, error) {
	return read(doc, i, modeler.ReadPosition)
}

// Normals reads a float VEC3 accessor.
func Normals(doc *gltf.Document, i int) ([][3]float32, error) {
	return read(doc, i, modeler.ReadNormal)
}

// TexCoords reads a VEC2 accessor, denormalizing integer components.
func TexCoords(doc *gltf.Document, i int) ([][2]float32, error) {
	return read(doc, i, modeler.ReadTextureCoord)
}

// Joints reads an unsigned byte or short VEC4 accessor.
func Joints(doc *gltf.Document, i int) ([][4]uint16, error) {
	return read(doc, i, modeler.ReadJoints)
}

// Weights reads a VEC4 accessor, denormalizing integer components.
func Weights(doc *gltf.Document, i int) ([][4]float32, error) {
	return read(doc, i, modeler.ReadWeights)
}

// Indices reads a SCALAR index accessor of any unsigned width.
func Indices(doc *gltf.Document, i int) ([]uint32, error) {
	return read(doc, i, modeler.ReadIndices)
}

// Matrices reads a float MAT4 accessor as column-major arrays.
func Matrices(doc *gltf.Document, i int) ([][16]float32, error) {
	cols, err := read(doc, i, modeler.ReadInverseBindMatrices)
	if err != nil {
		return nil, err
	}
	out := make([][16]float32, len(cols))
	for k, c := range cols {
		out[k] = Flatten(c)
	}
	return out, nil
}

// Floats reads a float accessor of any element type, flattened. Normalized
// integer VEC4 data, as used for compressed rotations, is mapped to
// [-1,1] or [0,1].
func Floats(doc *gltf.Document, i int) ([]float32, error) {
	acr, err := Accessor(doc, i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: accessor %d: %v", ErrInvalidAccessor, i, err)
	}

	switch v := data.(type) {
	case []float32:
		return v, nil
	case [][2]float32:
		return flatten(v, func(e [2]float32) []float32 { return e[:] }), nil
	case [][3]float32:
		return flatten(v, func(e [3]float32) []float32 { return e[:] }), nil
	case [][4]float32:
		return flatten(v, func(e [4]float32) []float32 { return e[:] }), nil
	}
	if !acr.Normalized {
		return nil, fmt.Errorf("%w: accessor %d: %s %s is not float data", ErrInvalidAccessor, i, acr.ComponentType, acr.Type)
	}
	switch v := data.(type) {
	case [][4]int8:
		return flatten(v, func(e [4]int8) []float32 { return denormalize(e, gltf.DenormalizeByte) }), nil
	case [][4]uint8:
		return flatten(v, func(e [4]uint8) []float32 { return denormalize(e, gltf.DenormalizeUbyte) }), nil
	case [][4]int16:
		return flatten(v, func(e [4]int16) []float32 { return denormalize(e, gltf.DenormalizeShort) }), nil
	case [][4]uint16:
		return flatten(v, func(e [4]uint16) []float32 { return denormalize(e, gltf.DenormalizeUshort) }), nil
	}
	return nil, fmt.Errorf("%w: accessor %d: unsupported normalized %s %s", ErrInvalidAccessor, i, acr.ComponentType, acr.Type)
}

func flatten[E any](v []E, fn func(E) []float32) []float32 {
	out := make([]float32, 0, len(v)*4)
	for _, e := range v {
		out = append(out, fn(e)...)
	}
	return out
}

func denormalize[T any](e [4]T, fn func(T) float32) []float32 {
	return []float32{fn(e[0]), fn(e[1]), fn(e[2]), fn(e[3])}
}

// Columns splits a column-major matrix into the column arrays the modeler
// writes.
func Columns(m [16]float32) [4][4]float32 {
	var c [4][4]float32
	for i := range c {
		copy(c[i][:], m[i*4:i*4+4])
	}
	return c
}

// Flatten joins column arrays back into a column-major matrix.
func Flatten(c [4][4]float32) [16]float32 {
	var m [16]float32
	for i := range c {
		copy(m[i*4:i*4+4], c[i][:])
	}
	return m
}
