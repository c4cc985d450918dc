// Package record decodes fixed-layout replay records into typed events.
//
// Decoding is table driven: each record type is described by a
// format.Record schema (marker, guard bytes, field offsets and widths),
// and one generic decoder interprets every schema. Adding a record type to
// the format profile requires no new decoding code.
//
// A 3-byte marker hit is only a candidate. Binary replay data produces
// marker byte sequences by chance, so every candidate is checked against
// the schema's guard bytes and bounds before it becomes an event. A failed
// check is a structural rejection: the decoder reports it as a
// *RejectionError and the scan continues at the next candidate. Rejections
// never abort a run.
//
// Decoders are pure functions of (stream, offset); they never mutate the
// stream and events are immutable once produced.
package record
