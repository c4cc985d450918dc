// Package testutil provides deterministic helpers for building synthetic
// replay streams in tests.
//
// The builders emit byte-exact record layouts (markers, guard bytes, field
// encodings) so round-trip tests can place records at chosen offsets and
// assert that scanning and decoding recover exactly the injected events.
package testutil

import (
	"encoding/binary"
	"math"

	"github.com/detrik/vgrscope/internal/stream"
)

// Record markers, duplicated from the default format profile on purpose:
// if the profile's constants drift, round-trip tests must break.
var (
	DeathMarker  = []byte{0x08, 0x04, 0x31}
	KillMarker   = []byte{0x18, 0x04, 0x1C}
	CreditMarker = []byte{0x10, 0x04, 0x1D}
	PlayerMarker = []byte{0xDA, 0x03, 0xEE}
)

// playerBlockSize covers the name, entity, hero, and team fields.
const playerBlockSize = 0xD6

// StreamBuilder assembles a synthetic replay stream with records at
// controlled offsets. Zero padding is inert: no record marker contains a
// zero-only prefix, so padding cannot create accidental candidates.
type StreamBuilder struct {
	buf []byte
}

// NewStreamBuilder creates an empty builder.
func NewStreamBuilder() *StreamBuilder {
	return &StreamBuilder{}
}

// Offset returns the current write position, i.e. where the next record's
// marker will land.
func (b *StreamBuilder) Offset() int {
	return len(b.buf)
}

// Pad appends n zero bytes.
func (b *StreamBuilder) Pad(n int) *StreamBuilder {
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

// PadTo pads with zeros until the write position reaches off. Panics if
// the builder is already past off; tests that place records at chosen
// offsets must not overlap them.
func (b *StreamBuilder) PadTo(off int) *StreamBuilder {
	if off < len(b.buf) {
		panic("testutil: PadTo target already passed")
	}
	return b.Pad(off - len(b.buf))
}

// Raw appends arbitrary bytes.
func (b *StreamBuilder) Raw(p []byte) *StreamBuilder {
	b.buf = append(b.buf, p...)
	return b
}

// Death appends a 13-byte death record for victim at ts.
func (b *StreamBuilder) Death(victim uint16, ts float32) *StreamBuilder {
	b.buf = append(b.buf, DeathMarker...)
	b.buf = append(b.buf, 0x00, 0x00)
	b.buf = binary.BigEndian.AppendUint16(b.buf, victim)
	b.buf = append(b.buf, 0x00, 0x00)
	b.buf = binary.BigEndian.AppendUint32(b.buf, math.Float32bits(ts))
	return b
}

// Kill appends a 16-byte kill record for killer with no preceding tick
// timestamp.
func (b *StreamBuilder) Kill(killer uint16) *StreamBuilder {
	b.buf = append(b.buf, KillMarker...)
	b.buf = append(b.buf, 0x00, 0x00)
	b.buf = binary.BigEndian.AppendUint16(b.buf, killer)
	b.buf = append(b.buf, 0xFF, 0xFF, 0xFF, 0xFF)
	b.buf = append(b.buf, 0x3F, 0x80, 0x00, 0x00)
	b.buf = append(b.buf, 0x29)
	return b
}

// KillAtTick appends a tick header carrying ts followed by a kill record,
// so the decoder's backward probe at marker-7 finds the timestamp.
func (b *StreamBuilder) KillAtTick(killer uint16, ts float32) *StreamBuilder {
	b.tick(ts)
	return b.Kill(killer)
}

// Credit appends a tick header carrying ts followed by a 12-byte credit
// record.
func (b *StreamBuilder) Credit(beneficiary uint16, value float32, flag byte, ts float32) *StreamBuilder {
	b.tick(ts)
	return b.CreditNoTick(beneficiary, value, flag)
}

// CreditNoTick appends a credit record with no usable tick timestamp
// before it.
func (b *StreamBuilder) CreditNoTick(beneficiary uint16, value float32, flag byte) *StreamBuilder {
	b.buf = append(b.buf, CreditMarker...)
	b.buf = append(b.buf, 0x00, 0x00)
	b.buf = binary.BigEndian.AppendUint16(b.buf, beneficiary)
	b.buf = binary.BigEndian.AppendUint32(b.buf, math.Float32bits(value))
	b.buf = append(b.buf, flag)
	return b
}

// tick writes the 7 bytes preceding a record header: a big-endian f32
// timestamp followed by three filler bytes.
func (b *StreamBuilder) tick(ts float32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, math.Float32bits(ts))
	b.buf = append(b.buf, 0x00, 0x00, 0x00)
}

// PlayerBlock appends a roster block: marker, ASCII name, and the entity,
// hero, and team fields at their deep fixed offsets. entity is given in
// the big-endian id space used by combat records; team is 1 (left) or 2
// (right).
func (b *StreamBuilder) PlayerBlock(name string, entity uint16, hero uint16, team byte) *StreamBuilder {
	start := len(b.buf)
	b.buf = append(b.buf, PlayerMarker...)
	b.buf = append(b.buf, name...)
	b.PadTo(start + 0xA5)
	// Stored little-endian in the block; big-endian write of the BE id is
	// the same byte order the original capture uses.
	b.buf = binary.BigEndian.AppendUint16(b.buf, entity)
	b.PadTo(start + 0xA9)
	b.buf = binary.LittleEndian.AppendUint16(b.buf, hero)
	b.PadTo(start + 0xD5)
	b.buf = append(b.buf, team)
	b.PadTo(start + playerBlockSize)
	return b
}

// Stream assembles the built bytes as a single-frame stream.
func (b *StreamBuilder) Stream() *stream.Stream {
	return stream.Assemble([][]byte{b.Bytes()})
}

// StreamSplit assembles the built bytes split into n roughly equal frames,
// for tests that exercise records straddling frame boundaries.
func (b *StreamBuilder) StreamSplit(n int) *stream.Stream {
	data := b.Bytes()
	if n < 1 {
		n = 1
	}
	frames := make([][]byte, 0, n)
	size := (len(data) + n - 1) / n
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		frames = append(frames, data[start:end])
	}
	if len(frames) == 0 {
		frames = append(frames, nil)
	}
	return stream.Assemble(frames)
}

// Bytes returns a copy of the built bytes.
func (b *StreamBuilder) Bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
