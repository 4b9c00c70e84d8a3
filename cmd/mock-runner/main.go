// Command mock-runner stands in for the Python runner bridge during
// development. It speaks the same snake_case envelope the bridge does and
// serves deterministic sine-wave data, so the sidecar and the add-in can be
// exercised without a Seeq server.
//
// Responses are plain chi handlers on purpose: the bridge reports failures
// inside a 200 envelope, and huma's validation layer would turn malformed
// requests into 422s the real bridge never sends.
package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/tsflow/sidecar/internal/common/logging"
	"github.com/tsflow/sidecar/internal/seeq"
	"github.com/tsflow/sidecar/internal/sheet"
)

const (
	wallLayout = "2006-01-02 15:04:05"
	maxSamples = 100_000
)

type options struct {
	LogLevel string `doc:"Log verbosity level" default:"info"`
	Addr     string `doc:"Listen address" default:"127.0.0.1:8000"`
}

type response struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message,omitempty"`
	Error         string           `json:"error,omitempty"`
	Data          []map[string]any `json:"data,omitempty"`
	DataColumns   []string         `json:"data_columns,omitempty"`
	SearchResults []seeq.SearchHit `json:"search_results,omitempty"`
	SensorCount   int              `json:"sensor_count,omitempty"`
	TimeRange     *seeq.TimeRange  `json:"time_range,omitempty"`
	User          string           `json:"user,omitempty"`
	Version       string           `json:"version,omitempty"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *options) {
		logging.Init(options.LogLevel)
		logging.Pretty()

		router := chi.NewRouter()
		router.Post("/authenticate_seeq", authenticate)
		router.Post("/search_and_pull_sensors", pull)
		router.Post("/search_sensors_only", search)
		router.Post("/test_connection", testConnection)
		router.Get("/get_server_info", serverInfo)

		server := http.Server{
			Addr:              options.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		hooks.OnStart(func() {
			log.Info().Str("addr", options.Addr).Msg("mock-runner: listening")
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("mock-runner: failed to listen")
			}
		})
		hooks.OnStop(func() {
			_ = server.Close()
		})
	})
	cli.Run()
}

func reply(w http.ResponseWriter, body response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("mock-runner: failed to encode response")
	}
}

func failure(w http.ResponseWriter, message string) {
	reply(w, response{Success: false, Error: message})
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		failure(w, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

func authenticate(w http.ResponseWriter, r *http.Request) {
	var req seeq.Auth
	if !decode(w, r, &req) {
		return
	}
	if req.AccessKey == "" || req.Password == "" {
		failure(w, "Access key and password are required")
		return
	}
	reply(w, response{Success: true, Message: "Authenticated successfully", User: req.AccessKey})
}

func pull(w http.ResponseWriter, r *http.Request) {
	var req seeq.PullRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccessKey == "" {
		failure(w, "Not authenticated")
		return
	}
	if len(req.SensorNames) == 0 {
		failure(w, "No sensors requested")
		return
	}
	start, err := time.Parse(wallLayout, req.StartDatetime)
	if err != nil {
		failure(w, fmt.Sprintf("Invalid start_datetime: %v", err))
		return
	}
	end, err := time.Parse(wallLayout, req.EndDatetime)
	if err != nil {
		failure(w, fmt.Sprintf("Invalid end_datetime: %v", err))
		return
	}
	grid, err := sheet.Resolve(sheet.Window{Start: start, End: end}, sheet.ModeGrid, req.Grid)
	if err != nil {
		failure(w, err.Error())
		return
	}

	records := generate(start, end, time.Duration(grid.Seconds())*time.Second, req.SensorNames)
	reply(w, response{
		Success:     true,
		Message:     fmt.Sprintf("Pulled %d rows", len(records)),
		Data:        records,
		DataColumns: append([]string{"Timestamp"}, req.SensorNames...),
		SensorCount: len(req.SensorNames),
		TimeRange:   &seeq.TimeRange{Start: req.StartDatetime, End: req.EndDatetime},
	})
}

// generate emits one record per grid step. Each sensor rides its own sine
// wave, and later sensors skip an occasional sample so the sidecar's gap
// handling stays visible during development.
func generate(start, end time.Time, step time.Duration, sensors []string) []map[string]any {
	records := []map[string]any{}
	for i, at := 0, start; !at.After(end) && i < maxSamples; i, at = i+1, at.Add(step) {
		record := map[string]any{"Timestamp": at.Format(wallLayout)}
		for j, sensor := range sensors {
			if j > 0 && (i+j)%11 == 0 {
				continue
			}
			phase := float64(i)*0.05 + float64(j)*2.0
			record[sensor] = math.Round((50+40*math.Sin(phase))*100) / 100
		}
		records = append(records, record)
	}
	return records
}

func search(w http.ResponseWriter, r *http.Request) {
	var req seeq.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccessKey == "" {
		failure(w, "Not authenticated")
		return
	}
	hits := make([]seeq.SearchHit, 0, len(req.SensorNames))
	for i, name := range req.SensorNames {
		hits = append(hits, seeq.SearchHit{
			Name:           name,
			ID:             fmt.Sprintf("0EE0-MOCK-%04d", i),
			Type:           "StoredSignal",
			DatasourceName: "Mock Historian",
			UnitOfMeasure:  "°C",
			Description:    fmt.Sprintf("Simulated signal for %s", name),
		})
	}
	reply(w, response{
		Success:       true,
		Message:       fmt.Sprintf("Found %d sensors", len(hits)),
		SearchResults: hits,
		SensorCount:   len(hits),
	})
}

func testConnection(w http.ResponseWriter, r *http.Request) {
	var req seeq.TestConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ServerURL == "" {
		failure(w, "Server URL is required")
		return
	}
	reply(w, response{Success: true, Message: "Server is reachable"})
}

func serverInfo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("url") == "" {
		failure(w, "Missing url parameter")
		return
	}
	reply(w, response{Success: true, Version: "mock-0.1.0"})
}
