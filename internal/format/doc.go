// Package format defines the replay format profile: the declarative
// description of every record type the decoder understands, plus the
// empirically derived correlation constants.
//
// The proprietary replay format has no public specification. Markers, guard
// bytes, field offsets, the ±byte proximity window, and the credit value
// thresholds were all discovered by scanning for recurring byte sequences
// and validating decoded values against known match outcomes. None of them
// are assumed to generalize to other format versions, so they live in a
// profile document instead of code.
//
// Profiles are authored in CUE. The embedded default profile describes the
// single observed layout; a caller can supply an override file that is
// unified with the default, so a new capture family only needs to restate
// the fields that differ. New record types are additive: adding a schema to
// the profile requires no change to scanning or decoding logic.
package format
