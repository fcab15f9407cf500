// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/goten/types/xslices"
	"github.com/pkg/errors"
)

// ModuleDict stores modules under string keys, preserving insertion order:
// Keys, Values and All always enumerate entries in the order they were first
// inserted. Lookups by key cost O(1).
//
// The zero value is an empty dict ready for use; NewModuleDict is provided
// for symmetry with the rest of the package.
//
// It is not safe for concurrent mutation.
type ModuleDict struct {
	entries []dictEntry
	index   map[string]int // key to position in entries
}

type dictEntry struct {
	key    string
	module Module
}

// NewModuleDict returns an empty ModuleDict.
func NewModuleDict() *ModuleDict {
	return &ModuleDict{index: make(map[string]int)}
}

// Insert stores the module under the key. Inserting over an existing key
// replaces that entry's module in place, keeping its position in the
// iteration order.
func (d *ModuleDict) Insert(key string, module Module) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, found := d.index[key]; found {
		d.entries[i].module = module
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, dictEntry{key: key, module: module})
}

// Get returns the module stored under the key, and whether there was one.
func (d *ModuleDict) Get(key string) (Module, bool) {
	i, found := d.index[key]
	if !found {
		return nil, false
	}
	return d.entries[i].module, true
}

// At returns the module stored under the key. It panics if the key is
// missing; use Get or Contains for a non-panicking access.
func (d *ModuleDict) At(key string) Module {
	module, found := d.Get(key)
	if !found {
		exceptions.Panicf("ModuleDict has no module under key %q", key)
	}
	return module
}

// GetAs returns the module stored under the key in the dict, if there is one
// and it has type M.
func GetAs[M Module](d *ModuleDict, key string) (module M, found bool) {
	m, found := d.Get(key)
	if !found {
		return
	}
	module, found = m.(M)
	return
}

// Pop removes the entry stored under the key and returns its module. It
// returns an error if the key is missing; use Contains for a non-failing
// check. The iteration order of the remaining entries is preserved.
func (d *ModuleDict) Pop(key string) (Module, error) {
	i, found := d.index[key]
	if !found {
		return nil, errors.Errorf("ModuleDict has no module under key %q to pop", key)
	}
	module := d.entries[i].module
	d.entries = slices.Delete(d.entries, i, i+1)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].key] = j
	}
	return module, nil
}

// Contains reports whether a module is stored under the key.
func (d *ModuleDict) Contains(key string) bool {
	_, found := d.index[key]
	return found
}

// Len returns the number of modules stored.
func (d *ModuleDict) Len() int { return len(d.entries) }

// IsEmpty reports whether the dict stores no modules.
func (d *ModuleDict) IsEmpty() bool { return len(d.entries) == 0 }

// Keys returns the keys in insertion order.
func (d *ModuleDict) Keys() []string {
	return xslices.Map(d.entries, func(e dictEntry) string { return e.key })
}

// Values returns the modules in insertion order.
func (d *ModuleDict) Values() []Module {
	return xslices.Map(d.entries, func(e dictEntry) Module { return e.module })
}

// All returns an iterator over the (key, module) pairs in insertion order.
//
//	for key, module := range dict.All() { ... }
func (d *ModuleDict) All() iter.Seq2[string, Module] {
	return func(yield func(string, Module) bool) {
		for _, entry := range d.entries {
			if !yield(entry.key, entry.module) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the dict: every stored module is cloned,
// under the same keys in the same order.
func (d *ModuleDict) Clone() *ModuleDict {
	clone := NewModuleDict()
	for _, entry := range d.entries {
		clone.Insert(entry.key, entry.module.Clone())
	}
	return clone
}

// String implements fmt.Stringer, listing the keys in iteration order.
func (d *ModuleDict) String() string {
	return fmt.Sprintf("ModuleDict[%s]", strings.Join(d.Keys(), ", "))
}
