// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/gomlx/goten/types/xslices"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

var (
	typeFloat16  = reflect.TypeOf(float16.Float16(0))
	typeBFloat16 = reflect.TypeOf(bfloat16.BFloat16(0))
)

// String converts to string, if not too large. It uses t.Summary(precision=4).
func (t *Tensor) String() string {
	return t.Summary(4)
}

// Summary returns a multi-line summary of the Tensor's content.
// Inspired by numpy output: rows and outer blocks larger than 6 elements are elided with "...".
func (t *Tensor) Summary(precision int) string {
	// Easy string building.
	var buf bytes.Buffer
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&buf, format, args...) }

	// Print value with appropriate formatting:
	wValue := func(v reflect.Value) {
		if v.Type() == typeFloat16 {
			w("%.*g", precision, v.Interface().(float16.Float16).Float32())
			return
		} else if v.Type() == typeBFloat16 {
			w("%.*g", precision, v.Interface().(bfloat16.BFloat16).Float32())
			return
		}
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			w("%d", v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			w("%d", v.Uint())
		case reflect.Complex64, reflect.Complex128:
			c := v.Complex()
			w("(%.*g+%.*gi)", precision, real(c), precision, imag(c))
		case reflect.Bool:
			w("%v", v.Bool())
		default:
			w("%.*g", precision, v.Interface())
		}
	}

	dims := t.Shape().Dimensions
	strides := t.Shape().Strides()
	t.ConstFlatData(func(flat any) {
		values := reflect.ValueOf(flat)

		// Print Go type equivalent.
		for _, dim := range dims {
			w("[%d]", dim)
		}
		w("%s", values.Type().Elem())
		if len(dims) == 0 {
			// Scalar value.
			w("(")
			wValue(values.Index(0))
			w(")")
			return
		}

		// Recursively print one level of the shape per call, eliding levels larger than 6 entries.
		var printLevel func(index, indent, level int)
		printLevel = func(index, indent, level int) {
			dim := dims[level]
			if level == len(dims)-1 {
				// One row of data:
				w("{")
				if dim > 6 {
					for i := 0; i < 3; i++ {
						if i > 0 {
							w(", ")
						}
						wValue(values.Index(index + i))
					}
					w(", ..., ")
					for i := dim - 3; i < dim; i++ {
						if i > dim-3 {
							w(", ")
						}
						wValue(values.Index(index + i))
					}
				} else {
					for i := 0; i < dim; i++ {
						if i > 0 {
							w(", ")
						}
						wValue(values.Index(index + i))
					}
				}
				w("}")
				return
			}

			// Outer axes: one sub-block per line.
			stride := strides[level]
			indentStr := strings.Repeat(" ", indent)
			w("{")
			if dim > 6 {
				for ii := 0; ii < 3; ii++ {
					if ii > 0 {
						w(",\n%s", indentStr)
					}
					printLevel(index+ii*stride, indent+1, level+1)
				}
				w(",\n%s...", indentStr)
				for ii := dim - 3; ii < dim; ii++ {
					w(",\n%s", indentStr)
					printLevel(index+ii*stride, indent+1, level+1)
				}
			} else {
				for ii := 0; ii < dim; ii++ {
					if ii > 0 {
						w(",\n%s", indentStr)
					}
					printLevel(index+ii*stride, indent+1, level+1)
				}
			}
			w("}")
		}
		printLevel(0, 1, 0)
	})
	return buf.String()
}

// GoStr converts to string, using a Go-syntax representation that can be copied&pasted back to code.
func (t *Tensor) GoStr() string {
	t.AssertValid()
	value := t.Value()
	if t.IsScalar() {
		return fmt.Sprintf("%s(%v)", t.shape.DType.GoStr(), value)
	}
	return fmt.Sprintf("%s: %s", t.shape, xslices.SliceToGoStr(value))
}
