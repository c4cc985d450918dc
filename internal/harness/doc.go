// Package harness provides a conformance testing framework for the replay
// reconstruction pipeline.
//
// A scenario is a YAML document describing synthetic records placed at
// chosen stream offsets, the entity seed for the registry, and the
// expected per-player tallies. The harness builds the byte-exact stream,
// runs the real scanner, decoders, and attribution engine over it, and
// evaluates the expectations. There is no shortcut path that writes the
// expected output directly, so a passing scenario exercises the full
// pipeline.
//
// Scenario traces can additionally be pinned with golden files
// (testdata/golden/{name}.golden); regenerate with:
//
//	go test ./internal/harness -update
package harness
