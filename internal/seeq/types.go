package seeq

import "github.com/tsflow/sidecar/internal/sheet"

// Wire shapes follow the Python runner bridge, which speaks snake_case
// JSON and SPy's spaced column names.

// Auth carries the Seeq sign-in the runner uses for a single request. The
// bridge holds no session; every request authenticates itself.
type Auth struct {
	ServerURL       string `json:"server_url"`
	AccessKey       string `json:"access_key"`
	Password        string `json:"password"`
	AuthProvider    string `json:"auth_provider"`
	IgnoreSSLErrors bool   `json:"ignore_ssl_errors"`
}

type PullRequest struct {
	Auth
	SensorNames   []string `json:"sensor_names"`
	StartDatetime string   `json:"start_datetime"`
	EndDatetime   string   `json:"end_datetime"`
	Grid          string   `json:"grid"`
	UserTimezone  string   `json:"user_timezone,omitempty"`
}

type SearchRequest struct {
	Auth
	SensorNames []string `json:"sensor_names"`
}

type TestConnectionRequest struct {
	ServerURL       string `json:"server_url"`
	IgnoreSSLErrors bool   `json:"ignore_ssl_errors"`
}

// SearchHit is one sensor matched by a search, keyed the way SPy labels
// its result frame.
type SearchHit struct {
	Name           string `json:"Name"`
	ID             string `json:"ID"`
	Type           string `json:"Type"`
	DatasourceName string `json:"Datasource Name"`
	UnitOfMeasure  string `json:"Value Unit Of Measure"`
	Description    string `json:"Description"`
}

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// envelope is the runner's uniform response body. Success with empty data
// means the query matched nothing; success false always carries a reason.
type envelope struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	Error         string           `json:"error"`
	Data          []map[string]any `json:"data"`
	DataColumns   []string         `json:"data_columns"`
	SearchResults []SearchHit      `json:"search_results"`
	SensorCount   int              `json:"sensor_count"`
	TimeRange     *TimeRange       `json:"time_range"`
	User          string           `json:"user"`
	Version       string           `json:"version"`
}

func (e envelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return "remote query failed"
}

type PullResult struct {
	Rows        []sheet.Row
	Columns     []string
	SensorCount int
	TimeRange   TimeRange
	Message     string
}

type SearchResult struct {
	Hits        []SearchHit
	SensorCount int
	Message     string
}

type AuthResult struct {
	User    string
	Message string
}

type ServerInfo struct {
	ServerURL string
	Version   string
}
