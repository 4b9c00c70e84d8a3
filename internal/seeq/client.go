// Package seeq talks to the Python runner bridge that fronts the Seeq
// server. The bridge does the SPy heavy lifting; this client owns the HTTP
// plumbing and normalizes its envelopes into Go values.
package seeq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tsflow/sidecar/internal/sheet"
)

// SPy frames serialize the timestamp under "Timestamp", or "index" when the
// frame kept its unnamed index.
const (
	timestampField = "Timestamp"
	indexField     = "index"
)

// RemoteError reports a failed exchange with the runner. Status is the HTTP
// status when the runner answered, 0 when the transport itself failed.
type RemoteError struct {
	Op     string
	Status int
	Reason string
	cause  error
}

func (e *RemoteError) Error() string {
	switch {
	case e.cause != nil:
		return fmt.Sprintf("seeq: %s: %v", e.Op, e.cause)
	case e.Reason != "":
		return fmt.Sprintf("seeq: %s: %s", e.Op, e.Reason)
	default:
		return fmt.Sprintf("seeq: %s: runner returned status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.cause }

// Unavailable reports whether the failure looks like the runner being down
// rather than the runner rejecting the request.
func (e *RemoteError) Unavailable() bool {
	return e.cause != nil || e.Status >= http.StatusInternalServerError
}

// Client is the HTTP client for the runner bridge.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		// SPy pulls over long windows routinely run past a minute.
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Pull fetches gridded samples for the named sensors. An empty Rows slice
// with a nil error means the query matched nothing.
func (c *Client) Pull(ctx context.Context, req PullRequest) (*PullResult, error) {
	env, err := c.post(ctx, "pull", "/search_and_pull_sensors", req)
	if err != nil {
		return nil, err
	}
	result := &PullResult{
		Rows:        rowsFromRecords(env.Data),
		Columns:     env.DataColumns,
		SensorCount: env.SensorCount,
		Message:     env.Message,
	}
	if env.TimeRange != nil {
		result.TimeRange = *env.TimeRange
	}
	return result, nil
}

// Search looks the named sensors up without pulling samples.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	env, err := c.post(ctx, "search", "/search_sensors_only", req)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Hits:        env.SearchResults,
		SensorCount: env.SensorCount,
		Message:     env.Message,
	}, nil
}

// Authenticate verifies a sign-in against the Seeq server.
func (c *Client) Authenticate(ctx context.Context, auth Auth) (*AuthResult, error) {
	env, err := c.post(ctx, "authenticate", "/authenticate_seeq", auth)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: env.User, Message: env.Message}, nil
}

// TestConnection checks that the Seeq server is reachable from the runner.
func (c *Client) TestConnection(ctx context.Context, req TestConnectionRequest) (string, error) {
	env, err := c.post(ctx, "test connection", "/test_connection", req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ServerInfo asks the runner what it knows about a Seeq server.
func (c *Client) ServerInfo(ctx context.Context, serverURL string) (*ServerInfo, error) {
	env, err := c.get(ctx, "server info", "/get_server_info?url="+url.QueryEscape(serverURL))
	if err != nil {
		return nil, err
	}
	return &ServerInfo{ServerURL: serverURL, Version: env.Version}, nil
}

func (c *Client) post(ctx context.Context, op, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) get(ctx context.Context, op, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RemoteError{Op: op, cause: err}
	}
	if !env.Success {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Reason: env.reason()}
	}
	return &env, nil
}

// rowsFromRecords splits each record's timestamp off from its sensor
// values. The runner serializes timestamps as wall-clock text.
func rowsFromRecords(records []map[string]any) []sheet.Row {
	rows := make([]sheet.Row, 0, len(records))
	for _, record := range records {
		row := sheet.Row{Values: make(map[string]any, len(record))}
		for key, value := range record {
			if key == timestampField || key == indexField {
				continue
			}
			row.Values[key] = value
		}
		if s, ok := record[timestampField].(string); ok {
			row.Timestamp = s
		} else if s, ok := record[indexField].(string); ok {
			row.Timestamp = s
		}
		rows = append(rows, row)
	}
	return rows
}
