// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"unsafe"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/gomlx/goten/types/tensors"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// execCat binds the flat data of the tensors and runs the generic kernel
// instantiated for the element type. Element types go-highway has no lanes
// for are copied through same-width views of the same memory: Float16 and
// BFloat16 through uint16, Bool through uint8. The kernels move bit patterns
// and never look at values, so any lane type of the right width serves.
func (e *Engine) execCat(plan catPlan, output *tensors.Tensor, inputs []*tensors.Tensor) error {
	dtype := output.DType()
	grain := plan.grainFor(e.grainBytes, dtype.Size())
	switch dtype {
	case dtypes.Bool:
		catFlat(e, plan, grain, viewAsUint8(mutableFlatOf[bool](output)), viewsAsUint8(flatsOf[bool](inputs)))
	case dtypes.Int8:
		catFlat(e, plan, grain, mutableFlatOf[int8](output), flatsOf[int8](inputs))
	case dtypes.Int16:
		catFlat(e, plan, grain, mutableFlatOf[int16](output), flatsOf[int16](inputs))
	case dtypes.Int32:
		catFlat(e, plan, grain, mutableFlatOf[int32](output), flatsOf[int32](inputs))
	case dtypes.Int64:
		catFlat(e, plan, grain, mutableFlatOf[int64](output), flatsOf[int64](inputs))
	case dtypes.Uint8:
		catFlat(e, plan, grain, mutableFlatOf[uint8](output), flatsOf[uint8](inputs))
	case dtypes.Uint16:
		catFlat(e, plan, grain, mutableFlatOf[uint16](output), flatsOf[uint16](inputs))
	case dtypes.Uint32:
		catFlat(e, plan, grain, mutableFlatOf[uint32](output), flatsOf[uint32](inputs))
	case dtypes.Uint64:
		catFlat(e, plan, grain, mutableFlatOf[uint64](output), flatsOf[uint64](inputs))
	case dtypes.Float16:
		catFlat(e, plan, grain, viewAsUint16(mutableFlatOf[float16.Float16](output)), viewsAsUint16(flatsOf[float16.Float16](inputs)))
	case dtypes.BFloat16:
		catFlat(e, plan, grain, viewAsUint16(mutableFlatOf[bfloat16.BFloat16](output)), viewsAsUint16(flatsOf[bfloat16.BFloat16](inputs)))
	case dtypes.Float32:
		catFlat(e, plan, grain, mutableFlatOf[float32](output), flatsOf[float32](inputs))
	case dtypes.Float64:
		catFlat(e, plan, grain, mutableFlatOf[float64](output), flatsOf[float64](inputs))
	default:
		return errors.Errorf("Cat does not support dtype %s", dtype)
	}
	return nil
}

// execSplit is the mirror of execCat: the same plan, with the runs copied out
// of the input's rows into the pieces.
func (e *Engine) execSplit(plan catPlan, input *tensors.Tensor, pieces []*tensors.Tensor) error {
	dtype := input.DType()
	grain := plan.grainFor(e.grainBytes, dtype.Size())
	switch dtype {
	case dtypes.Bool:
		splitFlat(e, plan, grain, viewAsUint8(flatOf[bool](input)), viewsAsUint8(mutableFlatsOf[bool](pieces)))
	case dtypes.Int8:
		splitFlat(e, plan, grain, flatOf[int8](input), mutableFlatsOf[int8](pieces))
	case dtypes.Int16:
		splitFlat(e, plan, grain, flatOf[int16](input), mutableFlatsOf[int16](pieces))
	case dtypes.Int32:
		splitFlat(e, plan, grain, flatOf[int32](input), mutableFlatsOf[int32](pieces))
	case dtypes.Int64:
		splitFlat(e, plan, grain, flatOf[int64](input), mutableFlatsOf[int64](pieces))
	case dtypes.Uint8:
		splitFlat(e, plan, grain, flatOf[uint8](input), mutableFlatsOf[uint8](pieces))
	case dtypes.Uint16:
		splitFlat(e, plan, grain, flatOf[uint16](input), mutableFlatsOf[uint16](pieces))
	case dtypes.Uint32:
		splitFlat(e, plan, grain, flatOf[uint32](input), mutableFlatsOf[uint32](pieces))
	case dtypes.Uint64:
		splitFlat(e, plan, grain, flatOf[uint64](input), mutableFlatsOf[uint64](pieces))
	case dtypes.Float16:
		splitFlat(e, plan, grain, viewAsUint16(flatOf[float16.Float16](input)), viewsAsUint16(mutableFlatsOf[float16.Float16](pieces)))
	case dtypes.BFloat16:
		splitFlat(e, plan, grain, viewAsUint16(flatOf[bfloat16.BFloat16](input)), viewsAsUint16(mutableFlatsOf[bfloat16.BFloat16](pieces)))
	case dtypes.Float32:
		splitFlat(e, plan, grain, flatOf[float32](input), mutableFlatsOf[float32](pieces))
	case dtypes.Float64:
		splitFlat(e, plan, grain, flatOf[float64](input), mutableFlatsOf[float64](pieces))
	default:
		return errors.Errorf("Split does not support dtype %s", dtype)
	}
	return nil
}

// catFlat fans the outer indices out to the pool in batches of grain indices
// and joins before returning. Each outer index writes one full output row,
// run by run in input order, so writes of different indices never overlap and
// the result does not depend on the number of workers.
func catFlat[T hwy.Lanes](e *Engine, plan catPlan, grain int, out []T, ins [][]T) {
	e.pool.ParallelForAtomicBatched(plan.outer, grain, func(start, end int) {
		for i := start; i < end; i++ {
			row := out[i*plan.rowLen : (i+1)*plan.rowLen]
			offset := 0
			for j, run := range plan.runs {
				copyRun(row[offset:offset+run], ins[j][i*run:(i+1)*run])
				offset += run
			}
		}
	})
}

// splitFlat is catFlat with the copy direction reversed.
func splitFlat[T hwy.Lanes](e *Engine, plan catPlan, grain int, in []T, outs [][]T) {
	e.pool.ParallelForAtomicBatched(plan.outer, grain, func(start, end int) {
		for i := start; i < end; i++ {
			row := in[i*plan.rowLen : (i+1)*plan.rowLen]
			offset := 0
			for j, run := range plan.runs {
				copyRun(outs[j][i*run:(i+1)*run], row[offset:offset+run])
				offset += run
			}
		}
	})
}

// copyRun copies one contiguous run of elements. Runs shorter than one SIMD
// vector of T take a plain scalar loop; longer runs go vector by vector with
// a scalar tail for the remainder.
func copyRun[T hwy.Lanes](dst, src []T) {
	n := len(src)
	lanes := hwy.MaxLanes[T]()
	if n < lanes {
		for i, v := range src {
			dst[i] = v
		}
		return
	}
	var i int
	for ; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Load(src[i:]), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = src[i]
	}
}

// The capture helpers below take the tensors' flat data references one tensor
// at a time, so the same tensor may appear in the inputs more than once.

func flatOf[T dtypes.Supported](t *tensors.Tensor) (flat []T) {
	tensors.ConstFlatData(t, func(f []T) { flat = f })
	return
}

func mutableFlatOf[T dtypes.Supported](t *tensors.Tensor) (flat []T) {
	tensors.MutableFlatData(t, func(f []T) { flat = f })
	return
}

func flatsOf[T dtypes.Supported](ts []*tensors.Tensor) [][]T {
	flats := make([][]T, len(ts))
	for i, t := range ts {
		flats[i] = flatOf[T](t)
	}
	return flats
}

func mutableFlatsOf[T dtypes.Supported](ts []*tensors.Tensor) [][]T {
	flats := make([][]T, len(ts))
	for i, t := range ts {
		flats[i] = mutableFlatOf[T](t)
	}
	return flats
}

// viewAsUint16 reinterprets a flat slice of a 16-bit element type as uint16,
// preserving bit patterns. The view aliases the same memory.
func viewAsUint16[T float16.Float16 | bfloat16.BFloat16](flat []T) []uint16 {
	return unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(flat))), len(flat))
}

func viewsAsUint16[T float16.Float16 | bfloat16.BFloat16](flats [][]T) [][]uint16 {
	views := make([][]uint16, len(flats))
	for i, flat := range flats {
		views[i] = viewAsUint16(flat)
	}
	return views
}

// viewAsUint8 reinterprets bools as uint8, one byte per element in Go.
func viewAsUint8(flat []bool) []uint8 {
	return unsafe.Slice((*uint8)(unsafe.Pointer(unsafe.SliceData(flat))), len(flat))
}

func viewsAsUint8(flats [][]bool) [][]uint8 {
	views := make([][]uint8, len(flats))
	for i, flat := range flats {
		views[i] = viewAsUint8(flat)
	}
	return views
}
