// Package stream assembles ordered replay frame buffers into one logical
// byte stream and provides marker scanning over it.
//
// A replay is captured as many sequentially numbered frame files. Record
// boundaries routinely straddle frame file boundaries, so all scanning and
// decoding happens over the concatenated stream, never per-frame. The
// stream keeps a cumulative-offset table so any absolute offset can be
// mapped back to the frame it came from for diagnostics.
//
// # Invariants
//
//   - The assembled stream is never mutated after construction.
//   - The offset→frame mapping is monotonic and total over [0, Len()).
//   - Scanning an absent marker yields an empty sequence, not an error.
package stream
