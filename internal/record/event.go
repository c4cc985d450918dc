package record

// EntityID is a raw numeric entity identifier in the big-endian id space
// used by combat records.
type EntityID uint16

// Team is the side a player entity fights for, as stored in its roster
// block.
type Team string

const (
	TeamLeft    Team = "left"
	TeamRight   Team = "right"
	TeamUnknown Team = "unknown"
)

// Event is a decoded replay record. Implementations are immutable value
// types; Offset returns the absolute stream offset of the record marker.
type Event interface {
	Offset() int
	eventMarker()
}

// Death is a decoded death record: a victim entity dying at a simulation
// timestamp.
type Death struct {
	Victim    EntityID
	Timestamp float32
	Off       int
}

// Kill is a decoded kill record. The record carries no embedded timestamp;
// Hint, when HasHint is set, is the tick timestamp probed from the bytes
// preceding the header and is advisory only. Attribution borrows the
// authoritative timestamp from a coincident credit group.
type Kill struct {
	Killer  EntityID
	Hint    float32
	HasHint bool
	Off     int
}

// Credit is a decoded credit record: a value paid to a beneficiary as part
// of a combat event. Timestamp is probed from the tick header preceding
// the record; HasTimestamp reports whether the probe decoded to a sane
// value.
type Credit struct {
	Beneficiary  EntityID
	Value        float32
	Flag         byte
	Timestamp    float32
	HasTimestamp bool
	Off          int
}

// Player is a decoded roster block: the identity behind an entity id.
type Player struct {
	Name   string
	Entity EntityID
	Hero   uint16
	Team   Team
	Off    int
}

func (d Death) Offset() int  { return d.Off }
func (k Kill) Offset() int   { return k.Off }
func (c Credit) Offset() int { return c.Off }
func (p Player) Offset() int { return p.Off }

func (Death) eventMarker()  {}
func (Kill) eventMarker()   {}
func (Credit) eventMarker() {}
func (Player) eventMarker() {}
