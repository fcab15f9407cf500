// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"fmt"
	"testing"

	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/gomlx/goten/types/shapes"
	"github.com/gomlx/goten/types/tensors"
	"github.com/gomlx/goten/types/xslices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	engine := New()
	defer engine.Close()

	input := tensors.FromValue([][]float32{{1, 2, 5, 6}, {3, 4, 7, 8}})

	pieces, err := engine.Split(input, 1, []int{2, 2})
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, pieces[0].Value())
	assert.Equal(t, [][]float32{{5, 6}, {7, 8}}, pieces[1].Value())

	// Uneven pieces.
	pieces, err = engine.Split(input, -1, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {3}}, pieces[0].Value())
	assert.Equal(t, [][]float32{{2, 5, 6}, {4, 7, 8}}, pieces[1].Value())

	// Rows axis.
	pieces, err = engine.Split(input, 0, []int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 5, 6}}, pieces[0].Value())
	assert.Equal(t, [][]float32{{3, 4, 7, 8}}, pieces[1].Value())

	// The pieces own their storage: mutating one leaves the input alone.
	tensors.MutableFlatData(pieces[0], func(flat []float32) { flat[0] = -1 })
	assert.Equal(t, float32(1), tensors.CopyFlatData[float32](input)[0])
}

func TestSplitDTypes(t *testing.T) {
	engine := New(WithWorkers(2))
	defer engine.Close()

	t.Run("Bool", func(t *testing.T) {
		input := tensors.FromFlatDataAndDimensions([]bool{true, false, false, true, true, false}, 2, 3)
		pieces, err := engine.Split(input, 1, []int{2, 1})
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, true, true}, tensors.CopyFlatData[bool](pieces[0]))
		assert.Equal(t, []bool{false, false}, tensors.CopyFlatData[bool](pieces[1]))
	})

	t.Run("BFloat16", func(t *testing.T) {
		row := func(values ...float32) []bfloat16.BFloat16 {
			return xslices.Map(values, bfloat16.FromFloat32)
		}
		input := tensors.FromFlatDataAndDimensions(row(1, 2, 3, 4), 1, 4)
		pieces, err := engine.Split(input, 1, []int{3, 1})
		require.NoError(t, err)
		assert.Equal(t, row(1, 2, 3), tensors.CopyFlatData[bfloat16.BFloat16](pieces[0]))
		assert.Equal(t, row(4), tensors.CopyFlatData[bfloat16.BFloat16](pieces[1]))
	})
}

// TestSplitRoundTrip checks that Split inverts Concat and vice versa.
func TestSplitRoundTrip(t *testing.T) {
	engine := New(WithGrainBytes(128))
	defer engine.Close()

	// Concat then Split restores every input.
	const rows = 16
	widths := []int{3, 8, 1}
	inputs := make([]*tensors.Tensor, len(widths))
	for i, width := range widths {
		flat := xslices.Iota[float64](float64(i*100), rows*width)
		inputs[i] = tensors.FromFlatDataAndDimensions(flat, rows, width)
	}
	whole, err := engine.Concat(inputs, 1)
	require.NoError(t, err)
	pieces, err := engine.Split(whole, 1, widths)
	require.NoError(t, err)
	require.Len(t, pieces, len(inputs))
	for i, piece := range pieces {
		require.True(t, inputs[i].Equal(piece), "piece #%d", i)
	}

	// Split then Concat restores the original.
	original := tensors.FromFlatDataAndDimensions(xslices.Iota[int32](0, 12*10), 12, 10)
	pieces, err = engine.Split(original, 0, []int{2, 7, 3})
	require.NoError(t, err)
	back, err := engine.Concat(pieces, 0)
	require.NoError(t, err)
	require.True(t, back.Equal(original))
}

func TestSplitErrors(t *testing.T) {
	engine := New()
	defer engine.Close()

	input := tensors.FromValue([][]float32{{1, 2, 3}, {4, 5, 6}})

	// Sizes must add up to the axis dimension.
	_, err := engine.Split(input, 1, []int{2, 2})
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	// Sizes must be positive.
	_, err = engine.Split(input, 1, []int{3, 0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "sizes[1]")

	// Axis must be in range.
	_, err = engine.Split(input, 2, []int{3})
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	// Scalars have no axis to split on.
	scalar := tensors.FromScalar(float32(7))
	_, err = engine.Split(scalar, 0, []int{1})
	require.Error(t, err)

	// Nil input.
	_, err = engine.Split(nil, 0, []int{1})
	require.Error(t, err)

	// Complex element types are not supported by the copy kernels.
	c := tensors.FromFlatDataAndDimensions([]complex128{1, 2i, 3, 4}, 2, 2)
	_, err = engine.Split(c, 0, []int{1, 1})
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)

	shape := shapes.Make(input.DType(), 2, 3)
	require.True(t, input.Shape().Equal(shape), "input must be left valid after failed calls")
}
