// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape and associated tools.
//
// Shape represents the shape (rank, dimensions and DType) of a Tensor. DType indicates
// the type of the unit element of a Tensor and is an alias to the enumeration defined
// in github.com/gomlx/gopjrt/dtypes.
//
// Go float16 support (commonly used by Nvidia GPUs) uses github.com/x448/float16
// implementation, and bfloat16 uses a simple implementation in
// github.com/gomlx/gopjrt/dtypes/bfloat16.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a Tensor.
//   - Axis: is the index of a dimension on a multidimensional Tensor. Sometimes used
//     interchangeably with Dimension, but here we try to refer to a dimension index as "axis"
//     (plural axes), and its size as its dimension.
//   - Dimension: the size of a multi-dimensions Tensor in one of its axes.
//   - DType: the data type of the unit element in a tensor.
//   - Scalar: is a shape where there are no axes (or dimensions), only a single value
//     of the associated DType.
//
// Example: The multi-dimensional array `[][]int32{{0, 1, 2}, {3, 4, 5}}` if converted to a
// Tensor would have shape `(int32)[2 3]`. We say it has rank 2 (so 2 axes), axis 0 has
// dimension 2, and axis 1 has dimension 3. This shape could be created with
// `shapes.Make(dtypes.Int32, 2, 3)`.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Shape represents the shape of a Tensor: its DType and the dimension of each of its axes.
//
// Use Make to create a new shape. See example in package shapes documentation.
type Shape struct {
	DType      DType
	Dimensions []int
}

// HasShape is an interface for objects that have an associated Shape.
// `tensors.Tensor` and Shape itself implement the interface.
type HasShape interface {
	Shape() Shape
}

// Make returns a Shape structure filled with the values given.
func Make(dtype DType, dimensions ...int) Shape {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given type.
func Scalar[T Number]() Shape {
	return Shape{DType: FromGenericsType[T]()}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// AdjustAxis returns the axis adjusted to the shape's rank: axis can take negative numbers,
// in which case it counts as starting from the end -- so axis=-1 refers to the last axis.
// It panics for an out-of-bound axis.
func (s Shape) AdjustAxis(axis int) int {
	adjustedAxis, err := s.CheckAxis(axis)
	if err != nil {
		exceptions.Panicf("Shape.AdjustAxis(%d): %v", axis, err)
	}
	return adjustedAxis
}

// CheckAxis adjusts the axis to the shape's rank, like AdjustAxis, but returns an error
// instead of panicking for an out-of-bound axis.
func (s Shape) CheckAxis(axis int) (int, error) {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		return -1, errors.Errorf("axis %d is out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return adjustedAxis, nil
}

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	return s.Dimensions[s.AdjustAxis(axis)]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements of DType are needed for this shape. It's the product of all dimensions.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the memory used to store an array of the given shape, the same as the size in bytes.
// Careful, so far all types in Go and on device seem to use the same sizes, but future type this is not guaranteed.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Strides returns the stride of each axis for a row-major ("C order") layout of the flat
// data: the last axis has stride 1, and each axis before it has the stride of the next
// axis times the next axis' dimension. It returns nil for scalar shapes.
func (s Shape) Strides() (strides []int) {
	rank := s.Rank()
	if rank == 0 {
		return
	}
	strides = make([]int, rank)
	currentStride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= s.Dimensions[axis]
	}
	return
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares two shapes for equality of dimensions. DTypes can be different.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.Rank() != s2.Rank() {
		return false
	}
	if s.IsScalar() {
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// UncheckedAxis can be used in CheckDims or AssertDims functions for an axis
// whose dimension doesn't matter.
const UncheckedAxis = int(-1)

// CheckDims checks that the shape has the given dimensions and rank. A value of -1 in
// dimensions means it can take any value and is not checked.
//
// It returns an error if the rank is different or if any of the dimensions don't match.
func (s Shape) CheckDims(dimensions ...int) error {
	if s.Rank() != len(dimensions) {
		return errors.Errorf("shape (%s) has incompatible rank %d (wanted %d)", s, s.Rank(), len(dimensions))
	}
	for ii, wantDim := range dimensions {
		if wantDim != UncheckedAxis && s.Dimensions[ii] != wantDim {
			return errors.Errorf("shape (%s) axis %d has dimension %d, wanted %d (shape wanted=%v)", s, ii, s.Dimensions[ii], wantDim, dimensions)
		}
	}
	return nil
}

// AssertDims checks that the shape has the given dimensions and rank. A value of -1 in
// dimensions means it can take any value and is not checked.
//
// It panics if it doesn't match.
func (s Shape) AssertDims(dimensions ...int) {
	err := s.CheckDims(dimensions...)
	if err != nil {
		panic(fmt.Sprintf("shapes.AssertDims(%v): %+v", dimensions, err))
	}
}

// CheckRank checks that the shape has the given rank.
//
// It returns an error if the rank is different.
func (s Shape) CheckRank(rank int) error {
	if s.Rank() != rank {
		return errors.Errorf("shape (%s) has incompatible rank %d -- wanted %d", s, s.Rank(), rank)
	}
	return nil
}

// AssertRank checks that the shape has the given rank.
//
// It panics if it doesn't match.
func (s Shape) AssertRank(rank int) {
	err := s.CheckRank(rank)
	if err != nil {
		panic(fmt.Sprintf("shapes.AssertRank(%d): %+v", rank, err))
	}
}

// AssertDims checks that the shape has the given dimensions and rank. A value of -1 in
// dimensions means it can take any value and is not checked.
//
// It panics if it doesn't match.
func AssertDims(shaped HasShape, dimensions ...int) {
	shaped.Shape().AssertDims(dimensions...)
}

// AssertRank checks that the shape has the given rank.
//
// It panics if it doesn't match.
func AssertRank(shaped HasShape, rank int) {
	shaped.Shape().AssertRank(rank)
}

// ConcatOutputShape calculates the shape resulting from concatenating the given input
// shapes along the given axis, validating that the inputs are compatible: all inputs must
// have the same DType and rank, and must match on every dimension except at the
// concatenation axis.
//
// The axis can be negative, in which case it is counted from the end.
//
// It returns an error if the inputs are empty or incompatible.
func ConcatOutputShape(inputs []Shape, axis int) (output Shape, err error) {
	if len(inputs) == 0 {
		return Invalid(), errors.Errorf("Concat requires at least one input shape")
	}

	firstShape := inputs[0]
	dtype := firstShape.DType
	rank := firstShape.Rank()
	if dtype == InvalidDType {
		return Invalid(), errors.Errorf("invalid shape %s for input #0 of Concat", firstShape)
	}
	axis, err = firstShape.CheckAxis(axis)
	if err != nil {
		return Invalid(), errors.WithMessage(err, "invalid concatenation axis")
	}
	output = firstShape.Clone()
	if len(inputs) == 1 {
		return output, nil
	}

	// Validate further inputs and accumulate the concatenation axis dimension.
	for i := 1; i < len(inputs); i++ {
		currentShape := inputs[i]
		if currentShape.DType == InvalidDType {
			return Invalid(), errors.Errorf("invalid shape %s for input #%d of Concat", currentShape, i)
		}
		if currentShape.DType != dtype {
			return Invalid(), errors.Errorf("mismatched DTypes for Concat: input #0 has %s, input #%d has %s",
				dtype, i, currentShape.DType)
		}
		if currentShape.Rank() != rank {
			return Invalid(), errors.Errorf("mismatched ranks for Concat: input #0 has rank %d, input #%d has rank %d",
				rank, i, currentShape.Rank())
		}

		for d := 0; d < rank; d++ {
			if d == axis {
				output.Dimensions[d] += currentShape.Dimensions[d]
			} else if currentShape.Dimensions[d] != output.Dimensions[d] {
				return Invalid(), errors.Errorf("mismatched dimensions for Concat at axis %d (non-concatenation axis): input #0 has %d, input #%d has %d",
					d, output.Dimensions[d], i, currentShape.Dimensions[d])
			}
		}
	}
	return output, nil
}

// String pretty-prints a list of shapes, used for error messages.
func String(shapes []Shape) string {
	parts := make([]string, 0, len(shapes))
	for _, s := range shapes {
		parts = append(parts, s.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
