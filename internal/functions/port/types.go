package port

import "github.com/tsflow/sidecar/internal/sheet"

// PullRequest mirrors the PULL function's arguments. ModeValue is a grid
// text like "15min" or a whole number of points, matching what the sheet
// passes.
type PullRequest struct {
	Sensors   []string `json:"sensors" doc:"Sensor names to pull"`
	Start     string   `json:"start" doc:"Window start: date text or spreadsheet serial"`
	End       string   `json:"end" doc:"Window end: date text or spreadsheet serial"`
	Mode      string   `json:"mode,omitempty" doc:"Sampling mode: points (default) or grid"`
	ModeValue any      `json:"modeValue,omitempty" doc:"Point count or grid text, per mode"`
	Timezone  string   `json:"timezone,omitempty" doc:"IANA zone for zone-naive dates"`
}

type SearchRequest struct {
	Sensors []string `json:"sensors" doc:"Sensor names to look up"`
}

type AverageRequest struct {
	Sensor string `json:"sensor" doc:"Sensor name"`
	Start  string `json:"start" doc:"Window start: date text or spreadsheet serial"`
	End    string `json:"end" doc:"Window end: date text or spreadsheet serial"`
}

// TableResult is what spill functions render. Error doubles the first
// table line so the add-in can log it; the table alone is what the sheet
// shows.
type TableResult struct {
	Table sheet.Table `json:"table" doc:"Rows ready to spill into the sheet"`
	Error string      `json:"error,omitempty" doc:"Set when the table carries an error rendering"`
}

// ScalarResult is what single-cell functions render.
type ScalarResult struct {
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty" doc:"Cell text shown instead of a value"`
}

// WatchUpdate is one live sample pushed over the watch socket.
type WatchUpdate struct {
	Sensor    string `json:"sensor"`
	Value     any    `json:"value,omitempty"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}
