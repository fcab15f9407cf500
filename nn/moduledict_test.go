// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"fmt"
	"testing"

	"github.com/gomlx/goten/kernels"
	"github.com/gomlx/goten/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// valued is a test module wrapping one scalar tensor.
type valued struct {
	tensor *tensors.Tensor
}

func newValued(value int32) *valued {
	return &valued{tensor: tensors.FromScalar(value)}
}

func (m *valued) value() int32 {
	return tensors.ToScalar[int32](m.tensor)
}

func (m *valued) Forward(inputs ...*tensors.Tensor) (*tensors.Tensor, error) {
	return m.tensor, nil
}

func (m *valued) Clone() Module {
	return &valued{tensor: m.tensor.Clone()}
}

func TestModuleDictInsert(t *testing.T) {
	dict := NewModuleDict()
	assert.Equal(t, 0, dict.Len())
	assert.True(t, dict.IsEmpty())

	dict.Insert("M1", newValued(1))
	assert.Equal(t, 1, dict.Len())
	assert.False(t, dict.IsEmpty())
	dict.Insert("M2", newValued(2))
	assert.Equal(t, 2, dict.Len())
	dict.Insert("M3", newValued(3))
	dict.Insert("M4", newValued(4))
	assert.Equal(t, 4, dict.Len())

	for i, key := range []string{"M1", "M2", "M3", "M4"} {
		module, found := GetAs[*valued](dict, key)
		require.True(t, found, key)
		assert.Equal(t, int32(i+1), module.value())
	}

	// Inserting over an existing key replaces the module but keeps its
	// position in the iteration order.
	dict.Insert("M2", newValued(20))
	assert.Equal(t, 4, dict.Len())
	assert.Equal(t, []string{"M1", "M2", "M3", "M4"}, dict.Keys())
	module, found := GetAs[*valued](dict, "M2")
	require.True(t, found)
	assert.Equal(t, int32(20), module.value())

	// The zero value works like an empty dict.
	var zero ModuleDict
	assert.True(t, zero.IsEmpty())
	zero.Insert("A", Identity{})
	assert.Equal(t, 1, zero.Len())
}

func TestModuleDictAccess(t *testing.T) {
	dict := NewModuleDict()
	dict.Insert("M1", newValued(1))
	dict.Insert("M2", newValued(2))

	assert.True(t, dict.Contains("M1"))
	assert.False(t, dict.Contains("M5"))

	module, found := dict.Get("M2")
	require.True(t, found)
	assert.Equal(t, int32(2), module.(*valued).value())
	_, found = dict.Get("M5")
	assert.False(t, found)

	require.NotPanics(t, func() { _ = dict.At("M1") })
	require.Panics(t, func() { _ = dict.At("M5") })

	// GetAs also checks the module type.
	_, found = GetAs[*valued](dict, "M1")
	assert.True(t, found)
	_, found = GetAs[Identity](dict, "M1")
	assert.False(t, found)
}

func TestModuleDictPop(t *testing.T) {
	dict := NewModuleDict()
	for i, key := range []string{"M1", "M2", "M3", "M4"} {
		dict.Insert(key, newValued(int32(i+1)))
	}

	module, err := dict.Pop("M2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), module.(*valued).value())
	assert.Equal(t, 3, dict.Len())
	assert.False(t, dict.Contains("M2"))

	// The remaining entries keep their order and stay reachable by key.
	assert.Equal(t, []string{"M1", "M3", "M4"}, dict.Keys())
	for i, key := range []string{"M1", "M3", "M4"} {
		got, found := GetAs[*valued](dict, key)
		require.True(t, found, key)
		assert.Equal(t, []int32{1, 3, 4}[i], got.value())
	}

	_, err = dict.Pop("M2")
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)
}

func TestModuleDictIteration(t *testing.T) {
	dict := NewModuleDict()
	keys := []string{"Linear", "BN", "Dropout"}
	for i, key := range keys {
		dict.Insert(key, newValued(int32(i)))
	}

	var gotKeys []string
	var gotValues []int32
	for key, module := range dict.All() {
		gotKeys = append(gotKeys, key)
		gotValues = append(gotValues, module.(*valued).value())
	}
	assert.Equal(t, keys, gotKeys)
	assert.Equal(t, []int32{0, 1, 2}, gotValues)

	assert.Equal(t, keys, dict.Keys())
	require.Len(t, dict.Values(), 3)

	// Early break from the iterator.
	count := 0
	for range dict.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)

	assert.Equal(t, "ModuleDict[Linear, BN, Dropout]", dict.String())
}

func TestModuleDictClone(t *testing.T) {
	dict := NewModuleDict()
	dict.Insert("M1", newValued(1))
	dict.Insert("M2", newValued(2))

	clone := dict.Clone()
	require.Equal(t, dict.Keys(), clone.Keys())

	// The clone's modules are deep copies with their own tensors.
	original, _ := GetAs[*valued](dict, "M1")
	cloned, found := GetAs[*valued](clone, "M1")
	require.True(t, found)
	assert.NotSame(t, original, cloned)
	tensors.MutableFlatData(original.tensor, func(flat []int32) { flat[0] = 100 })
	assert.Equal(t, int32(100), original.value())
	assert.Equal(t, int32(1), cloned.value())

	// Mutating the clone's layout leaves the original alone.
	_, err := clone.Pop("M2")
	require.NoError(t, err)
	assert.True(t, dict.Contains("M2"))
}

func TestIdentity(t *testing.T) {
	input := tensors.FromValue([]float32{1, 2, 3})
	output, err := Identity{}.Forward(input)
	require.NoError(t, err)
	assert.Same(t, input, output)

	_, err = Identity{}.Forward(input, input)
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)
}

func TestConcatModule(t *testing.T) {
	engine := kernels.New()
	defer engine.Close()

	dict := NewModuleDict()
	dict.Insert("identity", Identity{})
	dict.Insert("join", NewConcat(engine, -1))

	a := tensors.FromValue([][]float32{{1, 2}, {3, 4}})
	b := tensors.FromValue([][]float32{{5, 6}, {7, 8}})

	join, found := GetAs[*Concat](dict, "join")
	require.True(t, found)
	assert.Equal(t, -1, join.Axis())
	output, err := join.Forward(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 5, 6}, {3, 4, 7, 8}}, output.Value())

	// Clones share the engine and stay functional.
	clone := dict.Clone()
	cloneJoin, found := GetAs[*Concat](clone, "join")
	require.True(t, found)
	output, err = cloneJoin.Forward(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 5, 6}, {3, 4, 7, 8}}, output.Value())

	// Forward errors from the kernels surface unchanged.
	_, err = join.Forward(a, tensors.FromValue([]float32{1}))
	require.Error(t, err)
	fmt.Printf("\tExpected error: %v\n", err)
}
