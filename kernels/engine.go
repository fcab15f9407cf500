// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels implements tensor concatenation and split as parallel CPU
// copy kernels.
//
// An Engine owns a persistent worker pool and a copy grain (the minimum
// amount of bytes one unit of parallel work should move). Concatenation is
// planned once per call: the row-major layouts collapse into an outer
// repetition of contiguous per-input runs, the outer indices are then
// partitioned into grains and fanned out to the pool. All shape validation
// happens up front, so a failed call returns an error before any bytes move.
//
// Runs shorter than one SIMD vector are copied with a plain scalar loop;
// longer runs go vector by vector (go-highway lanes) with a scalar tail.
// Either way the kernels copy raw bit patterns, they never look at values.
//
// Example:
//
//	engine := kernels.New()
//	defer engine.Close()
//	result, err := engine.Concat([]*tensors.Tensor{a, b}, -1)
package kernels

import (
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/gomlx/goten/types/shapes"
	"github.com/gomlx/goten/types/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultGrainBytes is the default minimum amount of bytes one unit of
// parallel work copies. Rows are never split: a unit always covers at least
// one full output row.
const DefaultGrainBytes = 256 * 1024

// Engine executes concatenation kernels over a persistent worker pool.
// Create it with New, and Close it when done. It is safe for concurrent use.
type Engine struct {
	pool       *workerpool.Pool
	numWorkers int
	grainBytes int
}

// Option configures an Engine created by New.
type Option func(*Engine)

// WithWorkers sets the number of workers in the engine's pool. Values <= 0
// select runtime.GOMAXPROCS(0). One worker makes every call run sequentially
// on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.numWorkers = n
	}
}

// WithGrainBytes sets the minimum amount of bytes one unit of parallel work
// copies. Values <= 0 select DefaultGrainBytes. Larger grains cost less
// scheduling overhead, smaller grains balance load better.
func WithGrainBytes(n int) Option {
	return func(e *Engine) {
		e.grainBytes = n
	}
}

// New creates an Engine with its own worker pool. The workers are spawned
// once and reused across calls until Close.
func New(options ...Option) *Engine {
	e := &Engine{grainBytes: DefaultGrainBytes}
	for _, option := range options {
		option(e)
	}
	if e.grainBytes <= 0 {
		e.grainBytes = DefaultGrainBytes
	}
	e.pool = workerpool.New(e.numWorkers)
	klog.V(1).Infof("kernels: new engine with %d workers, grain of %d bytes", e.pool.NumWorkers(), e.grainBytes)
	return e
}

// NumWorkers returns the number of workers in the engine's pool.
func (e *Engine) NumWorkers() int {
	return e.pool.NumWorkers()
}

// Close releases the engine's workers. It is safe to call more than once.
func (e *Engine) Close() {
	e.pool.Close()
}

// Cat concatenates the inputs along the given axis into the pre-allocated
// output tensor. The inputs are read in the order given and never modified;
// the output shape must be exactly the concatenation of the input shapes,
// and the output must not share storage with any input. On error the output
// is left untouched.
//
// The axis may be negative to count from the end, like indexing a slice from
// its tail: -1 is the last axis.
func (e *Engine) Cat(output *tensors.Tensor, inputs []*tensors.Tensor, axis int) error {
	if output == nil {
		return errors.Errorf("Cat requires a non-nil output tensor")
	}
	inputShapes, err := shapesOf(inputs)
	if err != nil {
		return err
	}
	plan, err := newCatPlan(output.Shape(), inputShapes, axis)
	if err != nil {
		return err
	}
	return e.execCat(plan, output, inputs)
}

// Concat allocates the output tensor for concatenating the inputs along the
// given axis, runs Cat into it and returns it.
func (e *Engine) Concat(inputs []*tensors.Tensor, axis int) (*tensors.Tensor, error) {
	inputShapes, err := shapesOf(inputs)
	if err != nil {
		return nil, err
	}
	outputShape, err := shapes.ConcatOutputShape(inputShapes, axis)
	if err != nil {
		return nil, err
	}
	output := tensors.FromShape(outputShape)
	if err = e.Cat(output, inputs, axis); err != nil {
		return nil, err
	}
	return output, nil
}

// Split partitions the input along the given axis into len(sizes) newly
// allocated tensors, piece #i taking the next sizes[i] positions of the axis.
// It is the inverse of Concat: concatenating the pieces along the same axis
// reproduces the input bit by bit. The input is never modified.
func (e *Engine) Split(input *tensors.Tensor, axis int, sizes []int) ([]*tensors.Tensor, error) {
	if input == nil {
		return nil, errors.Errorf("Split requires a non-nil input tensor")
	}
	pieceShapes, err := splitShapes(input.Shape(), axis, sizes)
	if err != nil {
		return nil, err
	}
	// Split shares the concatenation arithmetic, with the pieces taking the
	// place of the concatenation inputs.
	plan, err := newCatPlan(input.Shape(), pieceShapes, axis)
	if err != nil {
		return nil, err
	}
	pieces := make([]*tensors.Tensor, len(pieceShapes))
	for i, pieceShape := range pieceShapes {
		pieces[i] = tensors.FromShape(pieceShape)
	}
	if err = e.execSplit(plan, input, pieces); err != nil {
		return nil, err
	}
	return pieces, nil
}

func shapesOf(inputs []*tensors.Tensor) ([]shapes.Shape, error) {
	if len(inputs) == 0 {
		return nil, errors.Errorf("at least one input tensor is required")
	}
	inputShapes := make([]shapes.Shape, len(inputs))
	for i, input := range inputs {
		if input == nil {
			return nil, errors.Errorf("input tensor #%d is nil", i)
		}
		inputShapes[i] = input.Shape()
	}
	return inputShapes, nil
}
