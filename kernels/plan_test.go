// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"fmt"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/goten/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatPlan(t *testing.T) {
	// Two [2 2] matrices concatenated on the columns axis: one output row per
	// matrix row, each input contributing a run of 2 elements.
	inputs := []shapes.Shape{
		shapes.Make(dtypes.Float32, 2, 2),
		shapes.Make(dtypes.Float32, 2, 2),
	}
	plan, err := newCatPlan(shapes.Make(dtypes.Float32, 2, 4), inputs, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.axis)
	assert.Equal(t, 2, plan.outer)
	assert.Equal(t, 4, plan.rowLen)
	assert.Equal(t, []int{2, 2}, plan.runs)

	// Same matrices on the rows axis: everything from the axis on is
	// contiguous, so there is a single outer index and whole-matrix runs.
	plan, err = newCatPlan(shapes.Make(dtypes.Float32, 4, 2), inputs, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, plan.axis)
	assert.Equal(t, 1, plan.outer)
	assert.Equal(t, 8, plan.rowLen)
	assert.Equal(t, []int{4, 4}, plan.runs)

	// Middle axis of rank-3 inputs with different axis dimensions.
	inputs = []shapes.Shape{
		shapes.Make(dtypes.Int64, 2, 1, 3),
		shapes.Make(dtypes.Int64, 2, 2, 3),
	}
	plan, err = newCatPlan(shapes.Make(dtypes.Int64, 2, 3, 3), inputs, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.outer)
	assert.Equal(t, 9, plan.rowLen)
	assert.Equal(t, []int{3, 6}, plan.runs)

	// Negative axis counts from the end.
	plan, err = newCatPlan(shapes.Make(dtypes.Int64, 2, 3, 3), inputs, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.axis)

	// The sum of the runs is always one output row.
	total := 0
	for _, run := range plan.runs {
		total += run
	}
	assert.Equal(t, plan.rowLen, total)
}

func TestNewCatPlanErrors(t *testing.T) {
	inputs := []shapes.Shape{
		shapes.Make(dtypes.Float32, 2, 2),
		shapes.Make(dtypes.Float32, 2, 2),
	}

	// Output shape not matching the concatenation of the inputs.
	_, err := newCatPlan(shapes.Make(dtypes.Float32, 2, 3), inputs, 1)
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	// Output with the right dimensions but the wrong dtype.
	_, err = newCatPlan(shapes.Make(dtypes.Float64, 2, 4), inputs, 1)
	require.Error(t, err)

	// Axis out of range.
	_, err = newCatPlan(shapes.Make(dtypes.Float32, 2, 4), inputs, 2)
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	// No inputs.
	_, err = newCatPlan(shapes.Make(dtypes.Float32, 2, 4), nil, 1)
	require.Error(t, err)
}

func TestGrainFor(t *testing.T) {
	plan := catPlan{rowLen: 4, outer: 1000}

	// 16 bytes per row of float32: a 64 bytes grain covers 4 rows.
	assert.Equal(t, 4, plan.grainFor(64, 4))

	// Grains never split a row.
	assert.Equal(t, 1, plan.grainFor(8, 4))
	assert.Equal(t, 1, plan.grainFor(0, 4))

	// Wider elements lower the rows per grain.
	assert.Equal(t, 2, plan.grainFor(64, 8))
}

func TestSplitShapes(t *testing.T) {
	input := shapes.Make(dtypes.Float32, 4, 6)

	pieces, err := splitShapes(input, 1, []int{2, 3, 1})
	require.NoError(t, err)
	require.Len(t, pieces, 3)
	assert.True(t, pieces[0].Equal(shapes.Make(dtypes.Float32, 4, 2)))
	assert.True(t, pieces[1].Equal(shapes.Make(dtypes.Float32, 4, 3)))
	assert.True(t, pieces[2].Equal(shapes.Make(dtypes.Float32, 4, 1)))

	// The input shape must not be touched by the pieces.
	pieces[0].Dimensions[0] = 100
	assert.Equal(t, 4, input.Dimensions[0])

	// Negative axis.
	pieces, err = splitShapes(input, -2, []int{1, 3})
	require.NoError(t, err)
	assert.True(t, pieces[1].Equal(shapes.Make(dtypes.Float32, 3, 6)))

	// Sizes must add up to the axis dimension.
	_, err = splitShapes(input, 1, []int{2, 3})
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	// Sizes must be positive.
	_, err = splitShapes(input, 1, []int{6, 0})
	require.Error(t, err)
	_, err = splitShapes(input, 1, []int{7, -1})
	require.Error(t, err)

	// At least one piece.
	_, err = splitShapes(input, 1, nil)
	require.Error(t, err)

	// Axis in range.
	_, err = splitShapes(input, 2, []int{3, 3})
	require.Error(t, err)
}
