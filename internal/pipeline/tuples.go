package pipeline

import "github.com/roach88/cqdecomp/internal/engine"

// enumerateTuples walks the cartesian product of options in odometer
// order, the last component varying fastest, and stops after limit tuples.
// A limit of 0 collects everything. Any empty option list yields nothing.
func enumerateTuples(options [][]engine.Rule, limit int) []Tuple {
	if len(options) == 0 {
		return nil
	}
	for _, opts := range options {
		if len(opts) == 0 {
			return nil
		}
	}

	idx := make([]int, len(options))
	var out []Tuple
	for {
		t := make(Tuple, len(options))
		for i, j := range idx {
			t[i] = options[i][j]
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			return out
		}

		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(options[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out
		}
	}
}
