package jsoncodec

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
)

// checkEncodable walks a decoded value tree (the shapes produced by a Go
// caller building a Document by hand, or by json.Unmarshal into `any`) and
// rejects anything spec.md §4.B forbids: functions, channels, *big.Int /
// big.Int values (gitdocdb's analogue of a JS bigint, which has no native
// Go counterpart), and reference cycles.
//
// encoding/json's own Marshal eventually notices a cycle too, but only
// after recursing to its internal startDetectingCyclesAfter threshold; this
// walk is the pack's narrowest stdlib-only answer, since no third-party
// cycle detector for arbitrary `any` graphs appears anywhere in the
// examples (see DESIGN.md).
func checkEncodable(v any) error {
	seen := map[uintptr]bool{}
	return walk(reflect.ValueOf(v), seen, 0)
}

const maxWalkDepth = 10000

func walk(rv reflect.Value, seen map[uintptr]bool, depth int) error {
	if depth > maxWalkDepth {
		return fmt.Errorf("%w: nesting exceeds %d levels", gitdocerr.ErrInvalidJSONObject, maxWalkDepth)
	}
	if !rv.IsValid() {
		return nil
	}

	switch v := rv.Interface().(type) {
	case big.Int, *big.Int:
		_ = v
		return fmt.Errorf("%w: bigint values are not representable as JSON", gitdocerr.ErrInvalidJSONObject)
	}

	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s values cannot be serialized", gitdocerr.ErrInvalidJSONObject, rv.Kind())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return walk(rv.Elem(), seen, depth+1)
	case reflect.Map:
		ptr := rv.Pointer()
		if ptr != 0 {
			if seen[ptr] {
				return fmt.Errorf("%w: cyclic reference detected", gitdocerr.ErrInvalidJSONObject)
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := walk(iter.Value(), seen, depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			ptr := rv.Pointer()
			if ptr != 0 {
				if seen[ptr] {
					return fmt.Errorf("%w: cyclic reference detected", gitdocerr.ErrInvalidJSONObject)
				}
				seen[ptr] = true
				defer delete(seen, ptr)
			}
		}
		for i := 0; i < rv.Len(); i++ {
			if err := walk(rv.Index(i), seen, depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return fmt.Errorf("%w: struct values must be converted to map[string]any before Put", gitdocerr.ErrInvalidJSONObject)
	default:
		return nil
	}
}
