// Package sheet holds the spreadsheet-facing value model: date parsing,
// serial date conversion, sampling-grid resolution and row reshaping.
// Everything here is pure; callers own all I/O.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const wallLayout = "2006-01-02 15:04:05"

// fallbackLayouts are tried last, in order. Layouts carrying an explicit
// offset produce zone-aware results; the rest read as wall-clock time.
var fallbackLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", true},
	{"20060102", true},
	{"2-Jan-2006 15:04:05", true},
	{"2-Jan-2006", true},
	{"January 2, 2006", true},
}

// ParseError reports input that matched none of the accepted date shapes.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized date %q", e.Input)
}

// Parser turns cell text into instants.
type Parser struct {
	// Location resolves inputs that carry no zone marker. Nil means
	// time.Local.
	Location *time.Location
}

func (p Parser) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

// Parse interprets a cell's textual content as an instant. The boolean
// reports whether the input was zone-naive, i.e. read against the parser's
// location rather than an offset the input itself carried. Rules are tried
// in a fixed order: spreadsheet serial, wall-clock timestamp, ISO 8601,
// slash-separated date, then a small set of fallback layouts.
func (p Parser) Parse(input string) (time.Time, bool, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false, &ParseError{Input: input}
	}
	loc := p.location()

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 100000 {
		codec := Codec{Location: loc}
		return codec.FromSerial(serial), true, nil
	}

	if t, err := time.ParseInLocation(wallLayout, s, loc); err == nil {
		return t, true, nil
	}

	if strings.Contains(s, "T") {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, false, nil
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
			return t, true, nil
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04", s, loc); err == nil {
			return t, true, nil
		}
	}

	for _, layout := range []string{"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true, nil
		}
	}

	for _, f := range fallbackLayouts {
		if f.naive {
			if t, err := time.ParseInLocation(f.layout, s, loc); err == nil {
				return t, true, nil
			}
			continue
		}
		if t, err := time.Parse(f.layout, s); err == nil {
			return t, false, nil
		}
	}

	return time.Time{}, false, &ParseError{Input: input}
}
