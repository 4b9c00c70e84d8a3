// Package functions implements the spreadsheet functions the add-in
// exposes: PULL, SEARCH_SENSORS, CURRENT and AVERAGE. The service is the
// add-in's whole backend brain; ports only marshal its inputs and outputs.
package functions

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/seeq"
	"github.com/tsflow/sidecar/internal/sheet"
)

const (
	wallLayout = "2006-01-02 15:04:05"

	// averagePoints is the fixed grid AVERAGE samples its window at.
	averagePoints = 100

	// currentWindow and currentGrid bound the trailing scan CURRENT does.
	currentWindow = time.Minute
	currentGrid   = "1s"
)

// Runner is the slice of the Seeq bridge the functions need.
type Runner interface {
	Pull(ctx context.Context, req seeq.PullRequest) (*seeq.PullResult, error)
	Search(ctx context.Context, req seeq.SearchRequest) (*seeq.SearchResult, error)
}

// Service evaluates spreadsheet functions. Credentials are read from the
// store on every call; nothing about a sign-in is cached here.
type Service struct {
	store  credential.Store
	runner Runner
	parser sheet.Parser
	codec  sheet.Codec
	now    func() time.Time
}

type Option func(*Service)

// WithLocation pins the wall clock used for zone-naive dates. The default
// is the sidecar host's local zone, which matches the machine Excel runs
// on.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.parser.Location = loc
		s.codec.Location = loc
	}
}

func WithConvention(convention sheet.Convention) Option {
	return func(s *Service) { s.codec.Convention = convention }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store credential.Store, runner Runner, options ...Option) *Service {
	s := &Service{store: store, runner: runner, now: time.Now}
	for _, option := range options {
		option(s)
	}
	return s
}

// PullParams mirrors the PULL function's arguments. Mode defaults to
// "points" and ModeValue to "1000" when blank.
type PullParams struct {
	SensorNames []string
	Start       string
	End         string
	Mode        string
	ModeValue   string
	Timezone    string
}

// Pull fetches gridded samples for the named sensors and reshapes them
// into a spill block headed "Timestamp" plus one column per declared
// sensor.
func (s *Service) Pull(ctx context.Context, params PullParams) (sheet.Table, error) {
	names := cleanNames(params.SensorNames)
	if len(names) == 0 {
		return nil, &Error{Kind: KindInvalidInput, Message: "at least one sensor name is required"}
	}
	parser, codec, timezone := s.sheetFor(params.Timezone)
	window, err := parseWindow(parser, params.Start, params.End)
	if err != nil {
		return nil, err
	}
	mode := sheet.SamplingMode(params.Mode)
	if params.Mode == "" {
		mode = sheet.ModePoints
	}
	value := params.ModeValue
	if value == "" {
		value = "1000"
	}
	grid, err := sheet.Resolve(window, mode, value)
	if err != nil {
		return nil, classify(err)
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.runner.Pull(ctx, seeq.PullRequest{
		Auth:          runnerAuth(creds),
		SensorNames:   names,
		StartDatetime: wall(window.Start, parser),
		EndDatetime:   wall(window.End, parser),
		Grid:          grid.String(),
		UserTimezone:  timezone,
	})
	if err != nil {
		return nil, classify(err)
	}
	return sheet.Reshape(result.Rows, names, codec), nil
}

// SearchSensors looks sensors up without pulling samples and lists what
// Seeq knows about each match.
func (s *Service) SearchSensors(ctx context.Context, names []string) (sheet.Table, error) {
	cleaned := cleanNames(names)
	if len(cleaned) == 0 {
		return nil, &Error{Kind: KindInvalidInput, Message: "at least one sensor name is required"}
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.runner.Search(ctx, seeq.SearchRequest{Auth: runnerAuth(creds), SensorNames: cleaned})
	if err != nil {
		return nil, classify(err)
	}
	if len(result.Hits) == 0 {
		return sheet.MessageTable(
			"No matching sensors found.",
			"Check the sensor names and try again.",
		), nil
	}
	table := sheet.Table{{"Name", "ID", "Type", "Datasource Name", "Value Unit Of Measure", "Description"}}
	for _, hit := range result.Hits {
		table = append(table, []any{
			textCell(hit.Name),
			textCell(hit.ID),
			textCell(hit.Type),
			textCell(hit.DatasourceName),
			textCell(hit.UnitOfMeasure),
			textCell(hit.Description),
		})
	}
	return table, nil
}

// Current returns the sensor's latest value from the trailing minute,
// sampled at one second. Rows are scanned newest first; the first present
// value wins.
func (s *Service) Current(ctx context.Context, sensor string) (any, error) {
	name := strings.TrimSpace(sensor)
	if name == "" {
		return nil, &Error{Kind: KindInvalidInput, Message: "a sensor name is required"}
	}
	end := s.now()
	window := sheet.Window{Start: end.Add(-currentWindow), End: end}
	grid, err := sheet.Resolve(window, sheet.ModeGrid, currentGrid)
	if err != nil {
		return nil, classify(err)
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	parser, _, _ := s.sheetFor("")
	result, err := s.runner.Pull(ctx, seeq.PullRequest{
		Auth:          runnerAuth(creds),
		SensorNames:   []string{name},
		StartDatetime: wall(window.Start, parser),
		EndDatetime:   wall(window.End, parser),
		Grid:          grid.String(),
	})
	if err != nil {
		return nil, classify(err)
	}
	for i := len(result.Rows) - 1; i >= 0; i-- {
		value, ok := result.Rows[i].Values[name]
		if ok && value != nil {
			return value, nil
		}
	}
	return nil, &Error{Kind: KindNoData, Message: fmt.Sprintf("no recent samples for %q", name)}
}

// Average pulls the window at a fixed 100-point grid and averages every
// sample that reads as a number. Text that does not parse and booleans are
// left out of the mean.
func (s *Service) Average(ctx context.Context, sensor, start, end string) (float64, error) {
	name := strings.TrimSpace(sensor)
	if name == "" {
		return 0, &Error{Kind: KindInvalidInput, Message: "a sensor name is required"}
	}
	parser, _, _ := s.sheetFor("")
	window, err := parseWindow(parser, start, end)
	if err != nil {
		return 0, err
	}
	grid, err := sheet.Resolve(window, sheet.ModePoints, strconv.Itoa(averagePoints))
	if err != nil {
		return 0, classify(err)
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return 0, err
	}
	result, err := s.runner.Pull(ctx, seeq.PullRequest{
		Auth:          runnerAuth(creds),
		SensorNames:   []string{name},
		StartDatetime: wall(window.Start, parser),
		EndDatetime:   wall(window.End, parser),
		Grid:          grid.String(),
	})
	if err != nil {
		return 0, classify(err)
	}
	sum, count := 0.0, 0
	for _, row := range result.Rows {
		if number, ok := numeric(row.Values[name]); ok {
			sum += number
			count++
		}
	}
	if count == 0 {
		return 0, &Error{Kind: KindNoData, Message: fmt.Sprintf("no numeric samples for %q in the window", name)}
	}
	return sum / float64(count), nil
}

func (s *Service) credentials(ctx context.Context) (credential.Credentials, error) {
	creds, err := s.store.Get(ctx)
	if err != nil {
		return credential.Credentials{}, classify(err)
	}
	return creds, nil
}

// sheetFor resolves the parser, codec and forwarded timezone for one
// call. A timezone argument overrides the sidecar default; an unknown name
// falls back to that default with a warning instead of failing the call.
// Only a loadable name is forwarded; the runner's tz_convert rejects the
// rest.
func (s *Service) sheetFor(timezone string) (sheet.Parser, sheet.Codec, string) {
	parser, codec := s.parser, s.codec
	if timezone == "" {
		return parser, codec, ""
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn().
			Str("timezone", timezone).
			Msg("functions: unknown timezone, using sidecar default")
		return parser, codec, ""
	}
	parser.Location = loc
	codec.Location = loc
	return parser, codec, timezone
}

func parseWindow(parser sheet.Parser, start, end string) (sheet.Window, error) {
	startAt, _, err := parser.Parse(start)
	if err != nil {
		return sheet.Window{}, &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("start date: %v", err), cause: err}
	}
	endAt, _, err := parser.Parse(end)
	if err != nil {
		return sheet.Window{}, &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("end date: %v", err), cause: err}
	}
	return sheet.Window{Start: startAt, End: endAt}, nil
}

// wall renders an instant the way the runner expects its datetimes:
// zone-free wall-clock text in the call's location.
func wall(t time.Time, parser sheet.Parser) string {
	loc := parser.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(wallLayout)
}

func runnerAuth(creds credential.Credentials) seeq.Auth {
	return seeq.Auth{
		ServerURL:       creds.ServerURL,
		AccessKey:       creds.AccessKey,
		Password:        creds.Password,
		AuthProvider:    creds.AuthProvider,
		IgnoreSSLErrors: creds.IgnoreSSLErrors,
	}
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func textCell(s string) any {
	if s == "" {
		return "N/A"
	}
	return s
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return number, true
	}
	return 0, false
}
