package format

import (
	"encoding/hex"
	"fmt"
)

// Record schema names present in every profile. The decoder registry is
// keyed by these names; additional record types in a profile are additive.
const (
	RecordDeath  = "death"
	RecordKill   = "kill"
	RecordCredit = "credit"
)

// Field roles referenced by the decoders.
const (
	FieldEntity    = "entity"
	FieldTimestamp = "timestamp"
	FieldValue     = "value"
	FieldFlag      = "flag"
)

// FieldType enumerates the wire encodings a fixed-layout field can have.
type FieldType string

const (
	U16BE FieldType = "u16be"
	U16LE FieldType = "u16le"
	F32BE FieldType = "f32be"
	U8    FieldType = "u8"
)

// Width returns the field's size in bytes.
func (t FieldType) Width() int {
	switch t {
	case U16BE, U16LE:
		return 2
	case F32BE:
		return 4
	case U8:
		return 1
	}
	return 0
}

// Field is one fixed-offset field inside a record, relative to the marker.
type Field struct {
	At   int
	Type FieldType
}

// Guard is a byte sequence that must match at a fixed offset for a
// candidate record to be accepted.
type Guard struct {
	At    int
	Bytes []byte
}

// Record is the declarative schema for one fixed-layout record type.
type Record struct {
	Name   string
	Marker []byte
	// Size is the record extent in bytes from the marker start; candidates
	// that would overrun the stream are rejected.
	Size int
	// Step is the scan advance after a hit. Death/Kill use 1 (overlapping
	// matches allowed), Credit uses the marker length.
	Step   int
	Guards []Guard
	Fields map[string]Field
	// TimestampProbe, when negative, is the offset (relative to the
	// marker) of a big-endian f32 tick timestamp preceding the record.
	// Zero means the record carries no probe.
	TimestampProbe int
}

// CreditThresholds are the empirically derived credit value cut points.
type CreditThresholds struct {
	KillerValue float32
	BountyMin   float32
	SubFlag     float32
}

// PlayerBlock describes the roster block layout. Names are variable
// length, so player blocks are decoded by a dedicated decoder instead of
// the fixed-layout table.
type PlayerBlock struct {
	Markers [][]byte
	NameAt  int
	NameCap int
	// NameMin rejects candidate blocks whose printable name run is shorter;
	// 3-byte markers collide with payload bytes often enough that short
	// "names" are almost always noise.
	NameMin int
	// SkipPrefixes rejects engine pseudo-blocks (mode descriptors) that
	// share the roster markers but name no player.
	SkipPrefixes []string
	EntityAt     int
	HeroAt       int
	TeamAt       int
}

// Profile is a fully validated replay format profile.
type Profile struct {
	// Window is the ± proximity window, in stream bytes, used to attach a
	// kill record to a credit group.
	Window int
	// TimestampBound is the exclusive upper sanity bound on any decoded
	// timestamp, in seconds.
	TimestampBound float32
	// PostGameBuffer extends a known match duration before events are
	// treated as post-game ceremony noise.
	PostGameBuffer float32
	Credit         CreditThresholds
	Records        map[string]Record
	PlayerBlock    PlayerBlock
}

// ProfileError reports an invalid or missing profile field.
type ProfileError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ProfileError) Error() string {
	return fmt.Sprintf("format profile: %s: %s", e.Field, e.Message)
}

// rawProfile mirrors the CUE document for decoding. Markers and guard
// bytes arrive as hex strings and are converted during validation.
type rawProfile struct {
	Window         int                  `json:"window"`
	TimestampBound float32              `json:"timestamp_bound"`
	PostGameBuffer float32              `json:"post_game_buffer"`
	Credit         rawCredit            `json:"credit"`
	Records        map[string]rawRecord `json:"records"`
	PlayerBlock    rawPlayerBlock       `json:"player_block"`
}

type rawCredit struct {
	KillerValue float32 `json:"killer_value"`
	BountyMin   float32 `json:"bounty_min"`
	SubFlag     float32 `json:"sub_flag"`
}

type rawGuard struct {
	At    int    `json:"at"`
	Bytes string `json:"bytes"`
}

type rawField struct {
	At   int    `json:"at"`
	Type string `json:"type"`
}

type rawRecord struct {
	Marker         string              `json:"marker"`
	Size           int                 `json:"size"`
	Step           int                 `json:"step"`
	Guards         []rawGuard          `json:"guards"`
	Fields         map[string]rawField `json:"fields"`
	TimestampProbe int                 `json:"timestamp_probe"`
}

type rawPlayerBlock struct {
	Markers      []string `json:"markers"`
	NameAt       int      `json:"name_at"`
	NameCap      int      `json:"name_cap"`
	NameMin      int      `json:"name_min"`
	SkipPrefixes []string `json:"skip_prefixes"`
	EntityAt     int      `json:"entity_at"`
	HeroAt       int      `json:"hero_at"`
	TeamAt       int      `json:"team_at"`
}

// build converts a decoded raw profile into a validated Profile.
func (r *rawProfile) build() (*Profile, error) {
	p := &Profile{
		Window:         r.Window,
		TimestampBound: r.TimestampBound,
		PostGameBuffer: r.PostGameBuffer,
		Credit: CreditThresholds{
			KillerValue: r.Credit.KillerValue,
			BountyMin:   r.Credit.BountyMin,
			SubFlag:     r.Credit.SubFlag,
		},
		Records: make(map[string]Record, len(r.Records)),
	}

	for name, rr := range r.Records {
		rec, err := rr.build(name)
		if err != nil {
			return nil, err
		}
		p.Records[name] = rec
	}

	for _, required := range []string{RecordDeath, RecordKill, RecordCredit} {
		if _, ok := p.Records[required]; !ok {
			return nil, &ProfileError{Field: "records." + required, Message: "required record schema missing"}
		}
	}

	pb, err := r.PlayerBlock.build()
	if err != nil {
		return nil, err
	}
	p.PlayerBlock = pb

	return p, nil
}

func (r *rawRecord) build(name string) (Record, error) {
	marker, err := parseHex("records."+name+".marker", r.Marker)
	if err != nil {
		return Record{}, err
	}
	if len(marker) != 3 {
		return Record{}, &ProfileError{
			Field:   "records." + name + ".marker",
			Message: fmt.Sprintf("marker must be 3 bytes, got %d", len(marker)),
		}
	}

	rec := Record{
		Name:           name,
		Marker:         marker,
		Size:           r.Size,
		Step:           r.Step,
		Fields:         make(map[string]Field, len(r.Fields)),
		TimestampProbe: r.TimestampProbe,
	}

	for _, g := range r.Guards {
		b, gerr := parseHex("records."+name+".guards", g.Bytes)
		if gerr != nil {
			return Record{}, gerr
		}
		if g.At+len(b) > r.Size {
			return Record{}, &ProfileError{
				Field:   "records." + name + ".guards",
				Message: fmt.Sprintf("guard at %d overruns record size %d", g.At, r.Size),
			}
		}
		rec.Guards = append(rec.Guards, Guard{At: g.At, Bytes: b})
	}

	for fname, f := range r.Fields {
		ft := FieldType(f.Type)
		if ft.Width() == 0 {
			return Record{}, &ProfileError{
				Field:   "records." + name + ".fields." + fname,
				Message: fmt.Sprintf("unknown field type %q", f.Type),
			}
		}
		if f.At+ft.Width() > r.Size {
			return Record{}, &ProfileError{
				Field:   "records." + name + ".fields." + fname,
				Message: fmt.Sprintf("field at %d overruns record size %d", f.At, r.Size),
			}
		}
		rec.Fields[fname] = Field{At: f.At, Type: ft}
	}

	if _, ok := rec.Fields[FieldEntity]; !ok {
		return Record{}, &ProfileError{
			Field:   "records." + name + ".fields",
			Message: "entity field is required",
		}
	}

	return rec, nil
}

func (r *rawPlayerBlock) build() (PlayerBlock, error) {
	if len(r.Markers) == 0 {
		return PlayerBlock{}, &ProfileError{Field: "player_block.markers", Message: "at least one marker required"}
	}

	if r.NameMin > r.NameCap {
		return PlayerBlock{}, &ProfileError{
			Field:   "player_block.name_min",
			Message: fmt.Sprintf("name_min %d exceeds name_cap %d", r.NameMin, r.NameCap),
		}
	}

	pb := PlayerBlock{
		NameAt:       r.NameAt,
		NameCap:      r.NameCap,
		NameMin:      r.NameMin,
		SkipPrefixes: r.SkipPrefixes,
		EntityAt:     r.EntityAt,
		HeroAt:       r.HeroAt,
		TeamAt:       r.TeamAt,
	}
	for i, m := range r.Markers {
		b, err := parseHex(fmt.Sprintf("player_block.markers[%d]", i), m)
		if err != nil {
			return PlayerBlock{}, err
		}
		if len(b) != 3 {
			return PlayerBlock{}, &ProfileError{
				Field:   fmt.Sprintf("player_block.markers[%d]", i),
				Message: fmt.Sprintf("marker must be 3 bytes, got %d", len(b)),
			}
		}
		pb.Markers = append(pb.Markers, b)
	}
	return pb, nil
}

func parseHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &ProfileError{Field: field, Message: fmt.Sprintf("invalid hex %q", s)}
	}
	return b, nil
}
