// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package nn provides the module abstraction for composing tensor operations
// and the named container to organize modules.
//
// A Module transforms input tensors into an output tensor. ModuleDict stores
// modules under string keys preserving insertion order, so sub-networks can
// be assembled, looked up and cloned by name.
package nn

import (
	"github.com/gomlx/goten/kernels"
	"github.com/gomlx/goten/types/tensors"
	"github.com/pkg/errors"
)

// Module transforms input tensors into an output tensor.
//
// Clone must be a deep copy: tensors the module owns are duplicated, so
// mutating the clone's state never touches the original.
type Module interface {
	// Forward applies the module to the inputs.
	Forward(inputs ...*tensors.Tensor) (*tensors.Tensor, error)

	// Clone returns a deep copy of the module.
	Clone() Module
}

// Identity is the no-op module: Forward returns its single input unchanged.
type Identity struct{}

// Forward implements Module.
func (Identity) Forward(inputs ...*tensors.Tensor) (*tensors.Tensor, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("Identity takes exactly one input, got %d", len(inputs))
	}
	return inputs[0], nil
}

// Clone implements Module. Identity owns no state.
func (Identity) Clone() Module { return Identity{} }

// Concat is a module that concatenates its inputs along a fixed axis.
type Concat struct {
	engine *kernels.Engine
	axis   int
}

// NewConcat returns a Concat module concatenating along the given axis. The
// axis may be negative to count from the end. The engine is only borrowed:
// closing it remains the caller's business, and clones share it.
func NewConcat(engine *kernels.Engine, axis int) *Concat {
	return &Concat{engine: engine, axis: axis}
}

// Axis returns the concatenation axis.
func (c *Concat) Axis() int { return c.axis }

// Forward implements Module: it concatenates the inputs along the module's
// axis into a newly allocated tensor.
func (c *Concat) Forward(inputs ...*tensors.Tensor) (*tensors.Tensor, error) {
	return c.engine.Concat(inputs, c.axis)
}

// Clone implements Module. The clone shares the engine, which holds no
// tensors of its own.
func (c *Concat) Clone() Module {
	return &Concat{engine: c.engine, axis: c.axis}
}
