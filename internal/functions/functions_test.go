package functions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/seeq"
	"github.com/tsflow/sidecar/internal/sheet"
)

var testZone = time.FixedZone("WIB", 7*3600)

type fakeRunner struct {
	pullRequest   *seeq.PullRequest
	pullResult    *seeq.PullResult
	pullErr       error
	searchRequest *seeq.SearchRequest
	searchResult  *seeq.SearchResult
	searchErr     error
}

func (f *fakeRunner) Pull(_ context.Context, req seeq.PullRequest) (*seeq.PullResult, error) {
	f.pullRequest = &req
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return f.pullResult, nil
}

func (f *fakeRunner) Search(_ context.Context, req seeq.SearchRequest) (*seeq.SearchResult, error) {
	f.searchRequest = &req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func signedInStore(t *testing.T) credential.Store {
	t.Helper()
	store := credential.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), credential.Credentials{
		ServerURL:    "https://seeq.example.com",
		AccessKey:    "key",
		Password:     "secret",
		AuthProvider: "Seeq",
	}))
	return store
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var fnErr *Error
	require.ErrorAs(t, err, &fnErr)
	return fnErr.Kind
}

func TestPullBuildsRunnerRequest(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{
		Rows: []sheet.Row{
			{Timestamp: "2025-08-01 00:00:00", Values: map[string]any{"TagA": 1.0, "TagB": 2.0}},
		},
	}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	table, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA", "TagB"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 00:01:00",
		Mode:        "points",
		ModeValue:   "10",
	})
	require.NoError(t, err)

	require.NotNil(t, runner.pullRequest)
	assert.Equal(t, "6s", runner.pullRequest.Grid)
	assert.Equal(t, "2025-08-01 00:00:00", runner.pullRequest.StartDatetime)
	assert.Equal(t, "2025-08-01 00:01:00", runner.pullRequest.EndDatetime)
	assert.Equal(t, "https://seeq.example.com", runner.pullRequest.ServerURL)
	assert.Equal(t, []string{"TagA", "TagB"}, runner.pullRequest.SensorNames)

	require.Len(t, table, 2)
	assert.Equal(t, []any{"Timestamp", "TagA", "TagB"}, table[0])
}

func TestPullDefaultsToThousandPoints(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 00:33:20", // 2000 seconds
	})
	require.NoError(t, err)
	assert.Equal(t, "2s", runner.pullRequest.Grid)
}

func TestPullGridModePassesDescriptorThrough(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-02 00:00:00",
		Mode:        "grid",
		ModeValue:   "15min",
	})
	require.NoError(t, err)
	assert.Equal(t, "15min", runner.pullRequest.Grid)
}

func TestPullHonorsTimezoneArg(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01T00:00:00Z",
		End:         "2025-08-01T06:00:00Z",
		Mode:        "grid",
		ModeValue:   "1h",
		Timezone:    "America/New_York",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-31 20:00:00", runner.pullRequest.StartDatetime)
	assert.Equal(t, "America/New_York", runner.pullRequest.UserTimezone)
}

func TestPullUnknownTimezoneNotForwarded(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 01:00:00",
		Mode:        "grid",
		ModeValue:   "1h",
		Timezone:    "Mars/Olympus_Mons",
	})
	require.NoError(t, err)
	// The window renders in the sidecar default and the bad name stays off
	// the wire; the runner would reject it even though the call fell back.
	assert.Equal(t, "2025-08-01 00:00:00", runner.pullRequest.StartDatetime)
	assert.Equal(t, "", runner.pullRequest.UserTimezone)
}

func TestPullRequiresSignIn(t *testing.T) {
	runner := &fakeRunner{}
	service := NewService(credential.NewMemoryStore(), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 01:00:00",
	})
	assert.Equal(t, KindNotAuthenticated, kindOf(t, err))
	assert.Nil(t, runner.pullRequest, "runner must not be called without credentials")

	table := ErrorTable(err)
	require.Len(t, table, 2)
	assert.Contains(t, table[0][0], "Not signed in")
}

func TestPullWindowTooShort(t *testing.T) {
	runner := &fakeRunner{}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 00:00:05",
		Mode:        "points",
		ModeValue:   "100",
	})
	assert.Equal(t, KindWindowTooShort, kindOf(t, err))
	assert.Nil(t, runner.pullRequest)
}

func TestPullRejectsBadInput(t *testing.T) {
	service := NewService(signedInStore(t), &fakeRunner{}, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		Start: "2025-08-01 00:00:00",
		End:   "2025-08-01 01:00:00",
	})
	assert.Equal(t, KindInvalidInput, kindOf(t, err))

	_, err = service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "not a date",
		End:         "2025-08-01 01:00:00",
	})
	assert.Equal(t, KindInvalidInput, kindOf(t, err))

	_, err = service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 01:00:00",
		Mode:        "grid",
		ModeValue:   "15minutes",
	})
	assert.Equal(t, KindInvalidInput, kindOf(t, err))
}

func TestPullRemoteFailure(t *testing.T) {
	runner := &fakeRunner{pullErr: &seeq.RemoteError{Op: "pull", Status: 502, Reason: "runner restarting"}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 01:00:00",
	})
	assert.Equal(t, KindRemoteFailure, kindOf(t, err))
}

func TestPullNoData(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	table, err := service.Pull(context.Background(), PullParams{
		SensorNames: []string{"TagA"},
		Start:       "2025-08-01 00:00:00",
		End:         "2025-08-01 01:00:00",
	})
	require.NoError(t, err)
	assert.True(t, table.IsNoData())
}

func TestCurrentPicksLatestPresentValue(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{
		Rows: []sheet.Row{
			{Timestamp: "2025-08-01 11:59:57", Values: map[string]any{"TagA": 41.5}},
			{Timestamp: "2025-08-01 11:59:58", Values: map[string]any{"TagA": 42.5}},
			{Timestamp: "2025-08-01 11:59:59", Values: map[string]any{"TagA": nil}},
			{Timestamp: "2025-08-01 12:00:00", Values: map[string]any{}},
		},
	}}
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, testZone)
	service := NewService(signedInStore(t), runner,
		WithLocation(testZone),
		WithClock(func() time.Time { return clock }),
	)

	value, err := service.Current(context.Background(), "TagA")
	require.NoError(t, err)
	assert.Equal(t, 42.5, value)

	assert.Equal(t, "1s", runner.pullRequest.Grid)
	assert.Equal(t, "2025-08-01 11:59:00", runner.pullRequest.StartDatetime)
	assert.Equal(t, "2025-08-01 12:00:00", runner.pullRequest.EndDatetime)
}

func TestCurrentNoSamples(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Current(context.Background(), "TagA")
	assert.Equal(t, KindNoData, kindOf(t, err))
	assert.Contains(t, ErrorString(err), "Error: ")
}

func TestAverageMixedValues(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{
		Rows: []sheet.Row{
			{Timestamp: "2025-08-01 00:00:00", Values: map[string]any{"TagA": 2.0}},
			{Timestamp: "2025-08-01 00:00:10", Values: map[string]any{"TagA": "4"}},
			{Timestamp: "2025-08-01 00:00:20", Values: map[string]any{"TagA": "bad"}},
			{Timestamp: "2025-08-01 00:00:30", Values: map[string]any{"TagA": nil}},
			{Timestamp: "2025-08-01 00:00:40", Values: map[string]any{"TagA": true}},
		},
	}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	mean, err := service.Average(context.Background(), "TagA", "2025-08-01 00:00:00", "2025-08-01 01:00:00")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, mean, 1e-9)
}

func TestAverageSamplesAtHundredPoints(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{
		Rows: []sheet.Row{{Timestamp: "2025-08-01 00:00:00", Values: map[string]any{"TagA": 1.0}}},
	}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Average(context.Background(), "TagA", "2025-08-01 00:00:00", "2025-08-01 00:16:40")
	require.NoError(t, err)
	assert.Equal(t, "10s", runner.pullRequest.Grid)
}

func TestAverageNoNumericSamples(t *testing.T) {
	runner := &fakeRunner{pullResult: &seeq.PullResult{
		Rows: []sheet.Row{{Timestamp: "2025-08-01 00:00:00", Values: map[string]any{"TagA": "offline"}}},
	}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	_, err := service.Average(context.Background(), "TagA", "2025-08-01 00:00:00", "2025-08-01 01:00:00")
	assert.Equal(t, KindNoData, kindOf(t, err))
}

func TestSearchSensorsTable(t *testing.T) {
	runner := &fakeRunner{searchResult: &seeq.SearchResult{
		Hits: []seeq.SearchHit{
			{Name: "TagA", ID: "0BA1", Type: "StoredSignal", DatasourceName: "Historian", UnitOfMeasure: "degC", Description: "Reactor temp"},
			{Name: "TagB", ID: "0BA2", Type: "StoredSignal", DatasourceName: "Historian"},
		},
	}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	table, err := service.SearchSensors(context.Background(), []string{" TagA ", "TagB", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"TagA", "TagB"}, runner.searchRequest.SensorNames)
	require.Len(t, table, 3)
	assert.Equal(t, []any{"Name", "ID", "Type", "Datasource Name", "Value Unit Of Measure", "Description"}, table[0])
	assert.Equal(t, "N/A", table[2][4], "blank fields render as N/A")
}

func TestSearchSensorsNoHits(t *testing.T) {
	runner := &fakeRunner{searchResult: &seeq.SearchResult{}}
	service := NewService(signedInStore(t), runner, WithLocation(testZone))

	table, err := service.SearchSensors(context.Background(), []string{"TagZ"})
	require.NoError(t, err)
	require.NotEmpty(t, table)
	assert.Len(t, table[0], 1)
}
