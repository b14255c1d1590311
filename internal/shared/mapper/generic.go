// Package mapper holds generic slice mapping helpers shared by persistence mappers and DTOs.
package mapper

import "fmt"

// MapSlice converts every element with fn. A nil input stays nil so JSON renders null
// rather than an empty list where the distinction matters.
func MapSlice[T any, R any](items []T, fn func(T) R) []R {
	if items == nil {
		return nil
	}
	out := make([]R, len(items))
	for i := range items {
		out[i] = fn(items[i])
	}
	return out
}

// MapSliceWithError converts every element with fn and stops at the first failure. The
// returned error names the failing position and wraps the cause.
func MapSliceWithError[T any, R any](items []T, fn func(T) (R, error)) ([]R, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]R, len(items))
	for i := range items {
		mapped, err := fn(items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = mapped
	}
	return out, nil
}
