// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/gomlx/goten/types/shapes"
	"github.com/pkg/errors"
)

// catPlan is the layout arithmetic for one concatenation call.
//
// In a row-major layout the elements spanned by the concatenation axis and
// everything after it are contiguous: each input contributes a contiguous run
// of dim(axis)*stride(axis) elements, repeated once per combination of the
// axes before the concatenation axis. The output interleaves those runs in
// caller order, rowLen elements per outer index, so the kernel only ever
// moves whole runs.
type catPlan struct {
	axis   int   // concatenation axis, already adjusted to be non-negative
	outer  int   // repetitions of the interleaved run pattern
	rowLen int   // elements of one output row, the sum of all runs
	runs   []int // elements each input contributes per outer index, in caller order
}

// newCatPlan validates the shapes of a Cat call and computes the copy plan.
// All validation happens here, once per call, before any bytes move: element
// types, ranks and every dimension other than the concatenation axis must
// agree, and the output shape must be the concatenation of the input shapes.
func newCatPlan(output shapes.Shape, inputs []shapes.Shape, axis int) (plan catPlan, err error) {
	want, err := shapes.ConcatOutputShape(inputs, axis)
	if err != nil {
		return
	}
	if !output.Equal(want) {
		err = errors.Errorf("concatenating inputs %s on axis %d requires output shape %s, got %s",
			shapes.String(inputs), axis, want, output)
		return
	}

	adjustedAxis := output.AdjustAxis(axis) // Cannot fail, ConcatOutputShape checked the axis.
	axisStride := output.Strides()[adjustedAxis]
	plan = catPlan{
		axis:   adjustedAxis,
		rowLen: output.Dimensions[adjustedAxis] * axisStride,
		runs:   make([]int, len(inputs)),
	}
	plan.outer = output.Size() / plan.rowLen
	for i, input := range inputs {
		plan.runs[i] = input.Dimensions[adjustedAxis] * input.Strides()[adjustedAxis]
	}
	return
}

// grainFor returns how many outer indices one unit of parallel work should
// cover so that a unit moves at least grainBytes. It is always at least one.
func (p catPlan) grainFor(grainBytes, bytesPerElement int) int {
	grain := grainBytes / (p.rowLen * bytesPerElement)
	if grain < 1 {
		grain = 1
	}
	return grain
}

// splitShapes returns the shapes resulting from splitting input along the
// given axis into pieces of the given sizes. The sizes must be positive and
// add up to the axis dimension.
func splitShapes(input shapes.Shape, axis int, sizes []int) ([]shapes.Shape, error) {
	adjustedAxis, err := input.CheckAxis(axis)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid axis for Split")
	}
	if len(sizes) == 0 {
		return nil, errors.Errorf("Split requires at least one piece size")
	}
	pieces := make([]shapes.Shape, len(sizes))
	total := 0
	for i, size := range sizes {
		if size <= 0 {
			return nil, errors.Errorf("Split piece sizes must be positive, got sizes[%d]=%d", i, size)
		}
		total += size
		pieces[i] = input.Clone()
		pieces[i].Dimensions[adjustedAxis] = size
	}
	if total != input.Dimensions[adjustedAxis] {
		return nil, errors.Errorf("Split sizes %v add up to %d, but axis %d of %s has dimension %d",
			sizes, total, axis, input, input.Dimensions[adjustedAxis])
	}
	return pieces, nil
}
