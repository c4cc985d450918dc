package stream

import "iter"

// Scan returns a lazy, restartable sequence of the absolute offsets where
// marker occurs in the stream, left to right.
//
// step controls how far the scan advances after a hit and is a
// format-specific contract, not a tuning knob:
//
//   - Death and Kill markers scan with step 1 so adjacent records packed
//     against each other are never missed (overlapping matches allowed).
//   - Credit markers scan with step len(marker) so the scanner does not
//     re-match inside the record it just reported.
//
// A step below 1 is treated as 1. An absent marker yields an empty
// sequence; there is no error case. The sequence can be ranged over
// multiple times and each iteration restarts from the beginning.
func (s *Stream) Scan(marker []byte, step int) iter.Seq[int] {
	if step < 1 {
		step = 1
	}
	return func(yield func(int) bool) {
		pos := 0
		for {
			hit := s.Find(marker, pos)
			if hit < 0 {
				return
			}
			if !yield(hit) {
				return
			}
			pos = hit + step
		}
	}
}
