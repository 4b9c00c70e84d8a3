package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// SamplingMode picks how the query period is derived.
type SamplingMode string

const (
	// ModeGrid passes a period descriptor like "15min" through verbatim.
	ModeGrid SamplingMode = "grid"
	// ModePoints divides the window into a requested number of samples.
	ModePoints SamplingMode = "points"
)

// Window is a half-open query time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Grid is a validated sampling period. String returns the exact descriptor
// handed to the query backend; Seconds is only consulted at boundaries that
// need the numeric period.
type Grid struct {
	descriptor string
	count      int64
	unit       string
}

func (g Grid) String() string { return g.descriptor }

func (g Grid) Seconds() int64 { return g.count * unitSeconds[g.unit] }

var gridFormat = regexp.MustCompile(`^(\d+)(s|min|h|d)$`)

var unitSeconds = map[string]int64{
	"s":   1,
	"min": 60,
	"h":   3600,
	"d":   86400,
}

// ResolutionErrorKind distinguishes why a window and mode could not be
// resolved into a grid.
type ResolutionErrorKind int

const (
	InvalidWindow ResolutionErrorKind = iota
	InvalidGridFormat
	WindowTooShort
	InvalidMode
)

type ResolutionError struct {
	Kind    ResolutionErrorKind
	message string
}

func (e *ResolutionError) Error() string { return e.message }

func newResolutionError(kind ResolutionErrorKind, format string, values ...any) *ResolutionError {
	return &ResolutionError{kind, fmt.Sprintf(format, values...)}
}

// Resolve validates the window and derives the sampling grid. Points mode
// divides the window into equal periods, rounding down to whole seconds; a
// window too short to give every point at least one second is rejected
// rather than silently upsampled.
func Resolve(w Window, mode SamplingMode, value string) (Grid, error) {
	if w.Start.IsZero() || w.End.IsZero() || !w.Start.Before(w.End) {
		return Grid{}, newResolutionError(InvalidWindow, "window start must precede window end")
	}
	switch mode {
	case ModeGrid:
		m := gridFormat.FindStringSubmatch(value)
		if m == nil {
			return Grid{}, newResolutionError(InvalidGridFormat, "grid %q must look like <number><s|min|h|d>, e.g. \"15min\"", value)
		}
		count, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || count == 0 {
			return Grid{}, newResolutionError(InvalidGridFormat, "grid %q must use a positive period", value)
		}
		return Grid{descriptor: value, count: count, unit: m[2]}, nil
	case ModePoints:
		points, err := strconv.ParseInt(value, 10, 64)
		if err != nil || points <= 0 {
			return Grid{}, newResolutionError(InvalidMode, "points %q must be a positive whole number", value)
		}
		period := int64(w.Duration()/time.Second) / points
		if period < 1 {
			return Grid{}, newResolutionError(WindowTooShort, "window of %s is too short for %d points at whole-second sampling", w.Duration(), points)
		}
		return Grid{descriptor: fmt.Sprintf("%ds", period), count: period, unit: "s"}, nil
	}
	return Grid{}, newResolutionError(InvalidMode, "sampling mode %q is not one of %q or %q", mode, ModeGrid, ModePoints)
}
