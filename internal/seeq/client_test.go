package seeq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPullNormalizesRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search_and_pull_sensors" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req PullRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.SensorNames) != 2 || req.Grid != "6s" || req.ServerURL != "https://seeq.example.com" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"Timestamp": "2025-08-01 00:00:00", "TagA": 1.5, "TagB": nil},
				{"Timestamp": "2025-08-01 00:00:06", "TagA": 2.5},
			},
			"data_columns": []string{"TagA", "TagB"},
			"sensor_count": 2,
			"time_range":   map[string]string{"start": "2025-08-01 00:00:00", "end": "2025-08-01 00:01:00"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.Pull(context.Background(), PullRequest{
		Auth:        Auth{ServerURL: "https://seeq.example.com", AccessKey: "k"},
		SensorNames: []string{"TagA", "TagB"},
		Grid:        "6s",
	})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows", len(result.Rows))
	}
	first := result.Rows[0]
	if first.Timestamp != "2025-08-01 00:00:00" {
		t.Fatalf("got timestamp %q", first.Timestamp)
	}
	if first.Values["TagA"] != 1.5 {
		t.Fatalf("got values %v", first.Values)
	}
	if _, leaked := first.Values["Timestamp"]; leaked {
		t.Fatalf("timestamp leaked into values: %v", first.Values)
	}
	if result.TimeRange.Start != "2025-08-01 00:00:00" {
		t.Fatalf("got time range %+v", result.TimeRange)
	}
}

func TestPullAcceptsIndexKeyedTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"index": "2025-08-01 00:00:00", "TagA": 1.5},
			},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, time.Second).Pull(context.Background(), PullRequest{})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	row := result.Rows[0]
	if row.Timestamp != "2025-08-01 00:00:00" {
		t.Fatalf("got timestamp %q", row.Timestamp)
	}
	if _, leaked := row.Values["index"]; leaked {
		t.Fatalf("index leaked into values: %v", row.Values)
	}
}

func TestPullEmptyDataIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, time.Second).Pull(context.Background(), PullRequest{})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("got %d rows, want none", len(result.Rows))
	}
}

func TestPullRunnerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Authentication failed: bad access key"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Pull(context.Background(), PullRequest{})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("got %v, want RemoteError", err)
	}
	if remoteErr.Reason != "Authentication failed: bad access key" {
		t.Fatalf("got reason %q", remoteErr.Reason)
	}
	if remoteErr.Unavailable() {
		t.Fatalf("a rejection is not an outage")
	}
}

func TestPullRunnerStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Pull(context.Background(), PullRequest{})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("got %v, want RemoteError", err)
	}
	if remoteErr.Status != http.StatusInternalServerError || !remoteErr.Unavailable() {
		t.Fatalf("got %+v", remoteErr)
	}
}

func TestPullRunnerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewClient(server.URL, time.Second).Pull(context.Background(), PullRequest{})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("got %v, want RemoteError", err)
	}
	if !remoteErr.Unavailable() {
		t.Fatalf("transport failure should read as unavailable")
	}
}

func TestSearchDecodesSpacedColumns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search_sensors_only" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"search_results": []map[string]any{
				{
					"Name":                  "TagA",
					"ID":                    "0BA1-22",
					"Type":                  "StoredSignal",
					"Datasource Name":       "Historian",
					"Value Unit Of Measure": "degC",
					"Description":           "Reactor temp",
				},
			},
			"sensor_count": 1,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, time.Second).Search(context.Background(), SearchRequest{SensorNames: []string{"TagA"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("got %d hits", len(result.Hits))
	}
	hit := result.Hits[0]
	if hit.DatasourceName != "Historian" || hit.UnitOfMeasure != "degC" {
		t.Fatalf("got hit %+v", hit)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid username or password"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Authenticate(context.Background(), Auth{ServerURL: "https://seeq.example.com"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("got %v, want RemoteError", err)
	}
	if remoteErr.Reason != "Invalid username or password" {
		t.Fatalf("got reason %q", remoteErr.Reason)
	}
}

func TestServerInfoEscapesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "https://seeq.example.com:34216" {
			t.Errorf("got url %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "version": "R62.0.1"})
	}))
	defer server.Close()

	info, err := NewClient(server.URL, time.Second).ServerInfo(context.Background(), "https://seeq.example.com:34216")
	if err != nil {
		t.Fatalf("server info: %v", err)
	}
	if info.Version != "R62.0.1" {
		t.Fatalf("got %+v", info)
	}
}
