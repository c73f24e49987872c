// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package activations

import "fmt"

// Supported aggregation keywords.
const (
	AggregateMean   = "mean"
	AggregateMax    = "max"
	AggregateSum    = "sum"
	AggregateConcat = "concat"
)

// Aggregate folds a non-empty list of equal-length vectors into one vector
// using the given method. "concat" joins the vectors end to end; the other
// methods combine element-wise.
//
// An unknown method fails with ErrUnsupportedAggregation; an empty input
// or ragged vector lengths (except under concat) are reported as plain
// errors.
func Aggregate(vectors [][]float64, method string) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("aggregate %s: no vectors", method)
	}

	if method == AggregateConcat {
		var out []float64
		for _, v := range vectors {
			out = append(out, v...)
		}
		return out, nil
	}

	width := len(vectors[0])
	for i, v := range vectors {
		if len(v) != width {
			return nil, fmt.Errorf("aggregate %s: vector %d has length %d, want %d", method, i, len(v), width)
		}
	}

	out := make([]float64, width)
	switch method {
	case AggregateMean:
		for _, v := range vectors {
			for i, x := range v {
				out[i] += x
			}
		}
		n := float64(len(vectors))
		for i := range out {
			out[i] /= n
		}

	case AggregateMax:
		copy(out, vectors[0])
		for _, v := range vectors[1:] {
			for i, x := range v {
				if x > out[i] {
					out[i] = x
				}
			}
		}

	case AggregateSum:
		for _, v := range vectors {
			for i, x := range v {
				out[i] += x
			}
		}

	default:
		return nil, fmt.Errorf("%w: %q (supported: mean, max, sum, concat)", ErrUnsupportedAggregation, method)
	}
	return out, nil
}
