package sheet

import (
	"math"
	"time"
)

// Spreadsheet serials count days since the 1900 date system's epoch, the
// fractional part carrying time of day. Serial 25569 lands on the Unix
// epoch, with the sheet's historical leap-year quirk already absorbed.
const (
	unixEpochSerial = 25569
	msPerDay        = 86_400_000
)

// Convention selects how serials relate to instants.
//
// ConventionLocalClock renders every instant on the codec's wall clock
// before conversion, so serials always read as local time in the sheet.
// ConventionUTCClock reproduces older builds that kept zone-aware instants
// on the UTC clock and only shifted zone-naive ones.
type Convention int

const (
	ConventionLocalClock Convention = iota
	ConventionUTCClock
)

// Codec converts between instants and spreadsheet serials.
type Codec struct {
	Convention Convention
	// Location is the wall clock used for offsets. Nil means time.Local.
	Location *time.Location
}

func (c Codec) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}

// ToSerial converts an instant to a spreadsheet serial. zoneNaive marks
// instants parsed from input that carried no zone of its own; under
// ConventionUTCClock those still render on the wall clock, so a typed date
// round-trips unchanged. The zero instant maps to serial 0, and a result
// that is not finite collapses to 0 as well.
func (c Codec) ToSerial(t time.Time, zoneNaive bool) float64 {
	if t.IsZero() {
		return 0
	}
	ms := t.UnixMilli()
	if c.Convention == ConventionLocalClock || zoneNaive {
		_, offset := t.In(c.location()).Zone()
		ms += int64(offset) * 1000
	}
	serial := float64(ms)/msPerDay + unixEpochSerial
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return 0
	}
	return serial
}

// FromSerial converts a spreadsheet serial back to an instant, millisecond
// precision. The serial is read as a wall-clock date: the offset subtracted
// is the one in force at the decoded moment itself, so dates on either side
// of a DST switch keep their wall reading. Zero and non-finite serials
// yield the zero time.
func (c Codec) FromSerial(serial float64) time.Time {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}
	}
	naive := time.UnixMilli(int64(math.Round((serial - unixEpochSerial) * msPerDay)))
	if c.Convention == ConventionUTCClock {
		return naive.UTC()
	}
	_, offset := naive.In(c.location()).Zone()
	return naive.Add(-time.Duration(offset) * time.Second).In(c.location())
}
