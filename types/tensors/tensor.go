// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements a `Tensor`, a representation of a multi-dimensional array.
//
// Tensors are multidimensional arrays (from scalar with 0 dimensions, to arbitrarily large dimensions), defined
// by their shape (a data type and its axes' dimensions) and their actual content, stored as a flat (1D) slice
// of the Go type corresponding to the DType, in row-major order.
//
// There are various ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): creates a tensor with the given shape, and zero values.
//
//   - FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int): creates a Tensor with the
//     given dimensions, filled with the scalar value given. `T` must be one of the supported types.
//
//   - FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int): creates a Tensor with the
//     given dimensions, and set the flattened values with the given data. `T` must be one of the supported types.
//     Example:
//
//     t := FromFlatDataAndDimensions([]int8{1, 2, 3, 4}, 2, 2) // Tensor with [[1,2], [3,4]]
//
//   - FromValue[S MultiDimensionSlice](value S): Generic conversion, works with the scalar supported `DType`s
//     as well as with any arbitrary multidimensional slice of them. Slices of rank > 1 must be regular, that is
//     all the sub-slices must have the same shape. Example:
//
//     t := FromValue([][]float32{{1,2}, {3, 5}, {7, 11}})
//
//   - FromAnyValue(value any): same as FromValue but non-generic, it takes an anonymous type `any`. The exception
//     is if `value` is already a tensor, then it is a no-op and it returns the tensor itself.
//
// Access to the data is done through accessor functions (ConstFlatData, MutableFlatData and the generic
// package-level forms), which scope the life-time of the borrowed flat slice. The flat data is owned by the
// Tensor: it remains valid while the Tensor is alive and not finalized, but it should preferably only be used
// inside the accessor functions.
package tensors

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/goten/types/shapes"
	"github.com/gomlx/goten/types/xslices"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Tensor represents a multidimensional array (from scalar with 0 dimensions, to arbitrarily large dimensions),
// defined by its shape -- a data type (dtypes.DType) and its axes' dimensions -- and its actual content, stored
// as a flat (1D) slice of the Go type corresponding to its DType, in row-major order.
//
// More details in the tensors package documentation.
type Tensor struct {
	// shape of the tensor. It is considered immutable: it is only changed when the Tensor is finalized.
	shape shapes.Shape

	// mu protects flat during concurrent access and finalization.
	mu sync.Mutex

	// flat holds the slice with the actual data, of the Go type corresponding to the shape's DType.
	flat any
}

// newTensor returns a Tensor object initialized only with the shape, but no actual storage yet.
func newTensor(shape shapes.Shape) *Tensor {
	return &Tensor{shape: shape}
}

// FromShape returns a Tensor with the given shape, with the data initialized with zeros.
func FromShape(shape shapes.Shape) (t *Tensor) {
	if !shape.Ok() {
		panic(errors.New("invalid shape"))
	}
	t = newTensor(shape)
	flatV := reflect.MakeSlice(reflect.SliceOf(t.shape.DType.GoType()), t.Size(), t.Size())
	t.flat = flatV.Interface()
	return
}

// Shape of the tensor, includes the DType.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the DType of the tensor's shape.
// It is a shortcut to `Tensor.Shape().DType`.
func (t *Tensor) DType() dtypes.DType {
	return t.shape.DType
}

// Rank returns the rank of the tensor's shape.
// It is a shortcut to `Tensor.Shape().Rank()`.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// IsScalar returns whether the tensor represents a scalar value.
// It is a shortcut to `Tensor.Shape().IsScalar()`.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Size returns the number of elements in the tensor.
// It is a shortcut to `Tensor.Shape().Size()`.
func (t *Tensor) Size() int { return t.shape.Size() }

// Memory returns the number of bytes used to store the tensor. An alias to Tensor.Shape().Memory().
func (t *Tensor) Memory() uintptr { return t.shape.Memory() }

// LayoutStrides return the strides for each axis. This can be handy when manipulating the flat data.
// It is a shortcut to `Tensor.Shape().Strides()`.
func (t *Tensor) LayoutStrides() []int { return t.shape.Strides() }

// Ok returns whether the Tensor is in a valid state: it is not nil, and it hasn't been finalized.
func (t *Tensor) Ok() bool {
	return t != nil && t.shape.Ok() && t.flat != nil
}

// IsFinalized returns true if the tensor has already been "finalized", and its data freed.
func (t *Tensor) IsFinalized() bool {
	return t == nil || t.flat == nil
}

// AssertValid panics if the tensor is nil, if its shape is invalid, or if it was already finalized.
func (t *Tensor) AssertValid() {
	if t == nil {
		panic(errors.New("Tensor is nil"))
	}
	if !t.shape.Ok() {
		panic(errors.New("Tensor shape is invalid"))
	}
	if t.flat == nil {
		panic(errors.New("Tensor has already been finalized"))
	}
}

// Finalize immediately frees the data associated with the tensor and leaves it in an invalid state.
// The shape is cleared also.
//
// It's the caller responsibility to ensure the tensor data is not being used elsewhere (like in the middle
// of a kernel execution).
func (t *Tensor) Finalize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flat = nil
	t.shape = shapes.Invalid()
}

// Clone creates a deep copy of the Tensor: shape and data.
func (t *Tensor) Clone() *Tensor {
	var clone *Tensor
	t.ConstFlatData(func(flat any) {
		clone = newTensor(t.shape.Clone())
		flatV := reflect.ValueOf(flat)
		size := flatV.Len()
		cloneFlatV := reflect.MakeSlice(flatV.Type(), size, size)
		reflect.Copy(cloneFlatV, flatV)
		clone.flat = cloneFlatV.Interface()
	})
	return clone
}

// ConstFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType.
// Even scalar values have a flattened data representation of one element.
// It locks the Tensor until accessFn returns.
//
// This provides accessFn with the actual Tensor data (not a copy), owned by the Tensor; it should not be
// changed. See Tensor.MutableFlatData to access a mutable version of the flat data.
//
// See Tensor.Size for the number of elements, and Tensor.LayoutStrides to calculate the offset of individual
// positions, given the indices at each axis.
//
// It panics if the tensor is in an invalid state (if it was finalized).
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AssertValid()
	accessFn(t.flat)
}

// ConstFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType.
// Even scalar values have a flattened data representation of one element.
// It locks the Tensor until accessFn returns.
//
// It is the "generics" version of Tensor.ConstFlatData(), and it panics if T doesn't match the tensor's DType.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("ConstFlatData[%T] is incompatible with Tensor's dtype %s -- expected dtype %s",
			v, t.shape.DType, dtypes.FromGenericsType[T]())
	}
	t.ConstFlatData(func(anyFlat any) {
		flat := anyFlat.([]T)
		accessFn(flat)
	})
}

// MutableFlatData calls accessFn with a flat slice pointing to the Tensor data. The type of the slice
// corresponds to the DType of the tensor. The contents of the slice can be changed until accessFn returns.
// During this time the Tensor is locked.
//
// Even scalar values have a flattened data representation of one element.
//
// See Tensor.ConstFlatData for read-only access to the flat data.
//
// It panics if the tensor is in an invalid state (if it was finalized).
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AssertValid()
	accessFn(t.flat)
}

// MutableFlatData calls accessFn with a flat slice pointing to the Tensor data. The type of the slice
// corresponds to the DType of the tensor. The contents of the slice can be changed until accessFn returns.
// During this time the Tensor is locked.
//
// It is the "generics" version of Tensor.MutableFlatData(), and it panics if T doesn't match the tensor's DType.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("MutableFlatData[%T] is incompatible with Tensor's dtype %s",
			v, t.shape.DType)
	}
	t.MutableFlatData(func(anyFlat any) {
		flat := anyFlat.([]T)
		accessFn(flat)
	})
}

// ConstBytes calls accessFn with the data as a bytes slice.
// Even scalar values have a bytes data representation of one element.
// It locks the Tensor until accessFn returns.
//
// This provides accessFn with the actual Tensor data (not a copy), owned by the Tensor; it should not be
// changed. See Tensor.MutableBytes to access a mutable version of the data as bytes.
//
// It panics if the tensor is in an invalid state (if it was finalized).
func (t *Tensor) ConstBytes(accessFn func(data []byte)) {
	t.ConstFlatData(func(flat any) {
		accessFn(flatToBytes(flat))
	})
}

// MutableBytes gives mutable access to the storage of the values for the tensor.
// It's similar to MutableFlatData, but provides a bytes view to the same data.
//
// See Tensor.ConstBytes for read-only access to the data as bytes.
func (t *Tensor) MutableBytes(accessFn func(data []byte)) {
	t.MutableFlatData(func(flat any) {
		accessFn(flatToBytes(flat))
	})
}

// flatToBytes creates a bytes view of the flat slice of values.
func flatToBytes(flat any) []byte {
	flatV := reflect.ValueOf(flat)
	element0 := flatV.Index(0)
	flatValuesPtr := element0.Addr().UnsafePointer()
	sizeBytes := uintptr(flatV.Len()) * element0.Type().Size()
	return unsafe.Slice((*byte)(flatValuesPtr), sizeBytes)
}

// AssignFlatData will copy over the values in fromFlat to the storage used by toTensor.
// If the dtypes are not compatible or if the size is wrong, it will panic.
func AssignFlatData[T dtypes.Supported](toTensor *Tensor, fromFlat []T) {
	MutableFlatData(toTensor, func(toFlat []T) {
		if len(toFlat) != len(fromFlat) {
			var v T
			exceptions.Panicf("AssignFlatData[%T] is trying to store %d values into shape %s, which requires %d values",
				v, len(fromFlat), toTensor.Shape(), toTensor.Shape().Size())
		}
		copy(toFlat, fromFlat)
	})
}

// ToScalar returns the scalar value of the Tensor.
//
// It will panic if the given generic type doesn't match the DType of the tensor, or if the tensor
// is not a scalar.
func ToScalar[T dtypes.Supported](t *Tensor) (value T) {
	if !t.shape.IsScalar() {
		var v T
		exceptions.Panicf("ToScalar[%T] requires scalar Tensor, got shape %s instead", v, t.shape)
	}
	ConstFlatData(t, func(flat []T) {
		value = flat[0]
	})
	return
}

// CopyFlatData returns a copy of the flat data of the Tensor.
//
// It will panic if the given generic type doesn't match the DType of the tensor.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var flatCopy []T
	ConstFlatData(t, func(flat []T) {
		flatCopy = xslices.Copy(flat)
	})
	return flatCopy
}

// Equal checks whether t == otherTensor: same shape and exactly the same values.
// If they are the same pointer they are considered equal.
// If the shapes are different it returns false.
// If either are invalid (nil or finalized) it panics.
//
// Slow implementation: fine for small tensors, but write something specialized for the DType if speed is desired.
func (t *Tensor) Equal(otherTensor *Tensor) bool {
	t.AssertValid()
	otherTensor.AssertValid()

	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	equal := true // Set to false at the first difference.
	t.ConstFlatData(func(flat0 any) {
		otherTensor.ConstFlatData(func(flat1 any) {
			t0V := reflect.ValueOf(flat0)
			t1V := reflect.ValueOf(flat1)
			if t0V.Len() != t1V.Len() {
				equal = false
				return
			}
			for ii := range t0V.Len() {
				if !t0V.Index(ii).Equal(t1V.Index(ii)) {
					equal = false
					return
				}
			}
		})
	})
	return equal
}
