package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/detrik/vgrscope/internal/format"
	"github.com/detrik/vgrscope/internal/stream"
)

// RejectionError reports that a marker candidate failed a structural
// precondition and is not a record of the given type. Rejections are
// recoverable and local: callers skip the candidate and keep scanning.
type RejectionError struct {
	Record string
	Offset int
	Reason string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s candidate at %d rejected: %s", e.Record, e.Offset, e.Reason)
}

// IsRejection reports whether err is a structural rejection.
// Uses errors.As to handle wrapped errors.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// Decoder interprets record schemas from a format profile against a
// logical stream.
type Decoder struct {
	prof *format.Profile
}

// NewDecoder creates a decoder bound to the given profile.
func NewDecoder(prof *format.Profile) *Decoder {
	return &Decoder{prof: prof}
}

// fieldSet holds the extracted field values for one record candidate.
type fieldSet struct {
	entity EntityID
	ts     float32
	hasTS  bool
	value  float32
	flag   byte
}

// decode validates a candidate at off against the schema and extracts its
// declared fields. Pure function of (stream, offset).
func (d *Decoder) decode(s *stream.Stream, schema format.Record, off int) (fieldSet, error) {
	var fs fieldSet

	win, err := s.Window(off, schema.Size)
	if err != nil {
		return fs, &RejectionError{Record: schema.Name, Offset: off, Reason: "record overruns stream"}
	}

	for _, g := range schema.Guards {
		if !bytes.Equal(win[g.At:g.At+len(g.Bytes)], g.Bytes) {
			return fs, &RejectionError{
				Record: schema.Name,
				Offset: off,
				Reason: fmt.Sprintf("guard mismatch at +%d", g.At),
			}
		}
	}

	for role, f := range schema.Fields {
		switch role {
		case format.FieldEntity:
			fs.entity = EntityID(readU16(win[f.At:], f.Type))
		case format.FieldTimestamp:
			ts := readF32BE(win[f.At:])
			if !d.saneTimestamp(ts) {
				return fs, &RejectionError{
					Record: schema.Name,
					Offset: off,
					Reason: fmt.Sprintf("timestamp %.2f outside (0, %.0f)", ts, d.prof.TimestampBound),
				}
			}
			fs.ts = ts
			fs.hasTS = true
		case format.FieldValue:
			fs.value = readF32BE(win[f.At:])
		case format.FieldFlag:
			fs.flag = win[f.At]
		}
	}

	// Out-of-record tick probe. A failed probe is not a rejection: the
	// record is real, it just has no usable timestamp.
	if schema.TimestampProbe < 0 && !fs.hasTS {
		probeAt := off + schema.TimestampProbe
		if probe, perr := s.Window(probeAt, 4); perr == nil {
			ts := readF32BE(probe)
			if d.saneTimestamp(ts) {
				fs.ts = ts
				fs.hasTS = true
			}
		}
	}

	return fs, nil
}

func (d *Decoder) saneTimestamp(ts float32) bool {
	return ts > 0 && ts < d.prof.TimestampBound && !math.IsNaN(float64(ts))
}

// Death decodes a death record candidate at off.
func (d *Decoder) Death(s *stream.Stream, off int) (Death, error) {
	fs, err := d.decode(s, d.prof.Records[format.RecordDeath], off)
	if err != nil {
		return Death{}, err
	}
	return Death{Victim: fs.entity, Timestamp: fs.ts, Off: off}, nil
}

// Kill decodes a kill record candidate at off.
func (d *Decoder) Kill(s *stream.Stream, off int) (Kill, error) {
	fs, err := d.decode(s, d.prof.Records[format.RecordKill], off)
	if err != nil {
		return Kill{}, err
	}
	return Kill{Killer: fs.entity, Hint: fs.ts, HasHint: fs.hasTS, Off: off}, nil
}

// Credit decodes a credit record candidate at off.
func (d *Decoder) Credit(s *stream.Stream, off int) (Credit, error) {
	fs, err := d.decode(s, d.prof.Records[format.RecordCredit], off)
	if err != nil {
		return Credit{}, err
	}
	return Credit{
		Beneficiary:  fs.entity,
		Value:        fs.value,
		Flag:         fs.flag,
		Timestamp:    fs.ts,
		HasTimestamp: fs.hasTS,
		Off:          off,
	}, nil
}

// Events scans the stream for every combat record type in the profile and
// returns the accepted events in ascending offset order. Structural
// rejections are skipped; they are expected noise when scanning binary
// data for 3-byte markers.
func (d *Decoder) Events(s *stream.Stream) []Event {
	var events []Event

	deathSchema := d.prof.Records[format.RecordDeath]
	for off := range s.Scan(deathSchema.Marker, deathSchema.Step) {
		if ev, err := d.Death(s, off); err == nil {
			events = append(events, ev)
		}
	}

	killSchema := d.prof.Records[format.RecordKill]
	for off := range s.Scan(killSchema.Marker, killSchema.Step) {
		if ev, err := d.Kill(s, off); err == nil {
			events = append(events, ev)
		}
	}

	creditSchema := d.prof.Records[format.RecordCredit]
	for off := range s.Scan(creditSchema.Marker, creditSchema.Step) {
		if ev, err := d.Credit(s, off); err == nil {
			events = append(events, ev)
		}
	}

	sortByOffset(events)
	return events
}

// Players decodes every roster block in the stream, across all player
// block marker variants, in offset order.
func (d *Decoder) Players(s *stream.Stream) []Player {
	pb := d.prof.PlayerBlock

	var players []Player
	for _, marker := range pb.Markers {
		for off := range s.Scan(marker, 1) {
			p, err := d.playerAt(s, off)
			if err != nil {
				continue
			}
			players = append(players, p)
		}
	}

	sortPlayers(players)
	return players
}

// playerAt decodes a single roster block candidate.
func (d *Decoder) playerAt(s *stream.Stream, off int) (Player, error) {
	pb := d.prof.PlayerBlock

	nameStart := off + pb.NameAt
	raw, err := s.Window(nameStart, pb.NameCap)
	if err != nil {
		// Block near the stream tail; take what fits.
		raw, err = s.Window(nameStart, s.Len()-nameStart)
		if err != nil {
			return Player{}, &RejectionError{Record: "player_block", Offset: off, Reason: "name overruns stream"}
		}
	}

	nameEnd := 0
	for nameEnd < len(raw) && raw[nameEnd] >= 0x20 && raw[nameEnd] <= 0x7E {
		nameEnd++
	}
	if nameEnd < pb.NameMin {
		return Player{}, &RejectionError{
			Record: "player_block",
			Offset: off,
			Reason: fmt.Sprintf("name shorter than %d", pb.NameMin),
		}
	}
	name := string(raw[:nameEnd])
	for _, prefix := range pb.SkipPrefixes {
		if strings.HasPrefix(name, prefix) {
			return Player{}, &RejectionError{Record: "player_block", Offset: off, Reason: "engine pseudo-block"}
		}
	}

	p := Player{Name: name, Team: TeamUnknown, Off: off}

	// Entity and hero ids live deep in the block and are little-endian;
	// the entity id is byte swapped into the big-endian space the combat
	// records use. Blocks truncated before these offsets still yield a
	// name-only player.
	if w, werr := s.Window(off+pb.EntityAt, 2); werr == nil {
		le := binary.LittleEndian.Uint16(w)
		p.Entity = EntityID(le>>8 | le<<8)
	}
	if w, werr := s.Window(off+pb.HeroAt, 2); werr == nil {
		p.Hero = binary.LittleEndian.Uint16(w)
	}
	if b, berr := s.At(off + pb.TeamAt); berr == nil {
		switch b {
		case 1:
			p.Team = TeamLeft
		case 2:
			p.Team = TeamRight
		}
	}

	return p, nil
}

func readU16(b []byte, t format.FieldType) uint16 {
	if t == format.U16LE {
		return binary.LittleEndian.Uint16(b)
	}
	return binary.BigEndian.Uint16(b)
}

func readF32BE(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func sortByOffset(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Offset() < events[j].Offset() })
}

func sortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool { return players[i].Off < players[j].Off })
}
