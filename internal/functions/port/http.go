// Package port exposes the spreadsheet functions over HTTP for the add-in,
// plus the websocket stream the task pane's live view listens on.
//
// Function-level failures are part of the payload, never the transport:
// every /functions response is a 200 carrying either the result or the
// cell text that explains what went wrong.
package port

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tsflow/sidecar/internal/common/constant"
	"github.com/tsflow/sidecar/internal/common/middleware"
	"github.com/tsflow/sidecar/internal/functions"
)

type handler struct {
	service     *functions.Service
	hub         *Hub
	evaluations metric.Int64Counter
}

func RegisterHandler(
	ctx context.Context,
	humaRouter huma.API,
	router chi.Router,
	middleware middleware.Middleware,
	service *functions.Service,
	watchSensors []string,
	watchInterval time.Duration,
) error {
	meter := otel.Meter("functions")

	evaluations, err := meter.Int64Counter(
		"functions.evaluations",
		metric.WithDescription("Spreadsheet function evaluations"),
	)
	if err != nil {
		log.Error().
			Err(err).
			Msg("functions: cannot create meter counter instance")
		return err
	}

	h := handler{service: service, hub: NewHub(), evaluations: evaluations}
	go h.hub.run(ctx)

	w, err := newWatcher(service, h.hub, watchSensors, watchInterval)
	if err != nil {
		return err
	}
	go w.run(ctx)

	security := []map[string][]string{{constant.OAPI_SECURITY_SCHEME: {}}}
	guard := huma.Middlewares{middleware.NewApiKeyGuard()}

	huma.Register(humaRouter, huma.Operation{
		OperationID: "pull-sensor-data",
		Method:      http.MethodPost,
		Path:        "/functions/pull",
		Summary:     "Evaluate PULL",
		Description: "Pulls gridded samples for the sensors and reshapes them into a spill block: a Timestamp column plus one column per declared sensor.",
		Tags:        []string{constant.OAPI_TAG_FUNCTIONS},
		Security:    security,
		Middlewares: guard,
	}, h.Pull)

	huma.Register(humaRouter, huma.Operation{
		OperationID: "search-sensors",
		Method:      http.MethodPost,
		Path:        "/functions/search",
		Summary:     "Evaluate SEARCH_SENSORS",
		Tags:        []string{constant.OAPI_TAG_FUNCTIONS},
		Security:    security,
		Middlewares: guard,
	}, h.Search)

	huma.Register(humaRouter, huma.Operation{
		OperationID: "current-value",
		Method:      http.MethodGet,
		Path:        "/functions/current",
		Summary:     "Evaluate CURRENT",
		Tags:        []string{constant.OAPI_TAG_FUNCTIONS},
		Security:    security,
		Middlewares: guard,
	}, h.Current)

	huma.Register(humaRouter, huma.Operation{
		OperationID: "average-value",
		Method:      http.MethodPost,
		Path:        "/functions/average",
		Summary:     "Evaluate AVERAGE",
		Tags:        []string{constant.OAPI_TAG_FUNCTIONS},
		Security:    security,
		Middlewares: guard,
	}, h.Average)

	router.With(middleware.NewApiKeyGuardHTTP()).Get("/functions/watch", h.Connect(ctx))
	return nil
}

func (h handler) Pull(ctx context.Context, input *struct{ Body PullRequest }) (*struct{ Body TableResult }, error) {
	value, err := modeValueText(input.Body.ModeValue)
	if err != nil {
		h.record(ctx, "pull", false)
		return tableFailure(err), nil
	}
	table, err := h.service.Pull(ctx, functions.PullParams{
		SensorNames: input.Body.Sensors,
		Start:       input.Body.Start,
		End:         input.Body.End,
		Mode:        input.Body.Mode,
		ModeValue:   value,
		Timezone:    input.Body.Timezone,
	})
	if err != nil {
		h.record(ctx, "pull", false)
		return tableFailure(err), nil
	}
	h.record(ctx, "pull", true)
	return &struct{ Body TableResult }{Body: TableResult{Table: table}}, nil
}

func (h handler) Search(ctx context.Context, input *struct{ Body SearchRequest }) (*struct{ Body TableResult }, error) {
	table, err := h.service.SearchSensors(ctx, input.Body.Sensors)
	if err != nil {
		h.record(ctx, "search", false)
		return tableFailure(err), nil
	}
	h.record(ctx, "search", true)
	return &struct{ Body TableResult }{Body: TableResult{Table: table}}, nil
}

func (h handler) Current(ctx context.Context, input *struct {
	Sensor string `query:"sensor" doc:"Sensor name"`
}) (*struct{ Body ScalarResult }, error) {
	value, err := h.service.Current(ctx, input.Sensor)
	if err != nil {
		h.record(ctx, "current", false)
		return &struct{ Body ScalarResult }{Body: ScalarResult{Error: functions.ErrorString(err)}}, nil
	}
	h.record(ctx, "current", true)
	return &struct{ Body ScalarResult }{Body: ScalarResult{Value: value}}, nil
}

func (h handler) Average(ctx context.Context, input *struct{ Body AverageRequest }) (*struct{ Body ScalarResult }, error) {
	mean, err := h.service.Average(ctx, input.Body.Sensor, input.Body.Start, input.Body.End)
	if err != nil {
		h.record(ctx, "average", false)
		return &struct{ Body ScalarResult }{Body: ScalarResult{Error: functions.ErrorString(err)}}, nil
	}
	h.record(ctx, "average", true)
	return &struct{ Body ScalarResult }{Body: ScalarResult{Value: mean}}, nil
}

func (h handler) Connect(ctx context.Context) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("watch: failed to upgrade connection")
			return
		}
		client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 256)}
		client.hub.register <- client

		go client.readPump(ctx)
		go client.writePump(ctx)
	}
}

func (h handler) record(ctx context.Context, function string, ok bool) {
	h.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("function", function),
		attribute.Bool("ok", ok),
	))
}

func tableFailure(err error) *struct{ Body TableResult } {
	return &struct{ Body TableResult }{Body: TableResult{
		Table: functions.ErrorTable(err),
		Error: err.Error(),
	}}
}

// modeValueText normalizes the JSON union the sheet sends: grid text stays
// text, a whole number becomes its decimal form, anything else is an input
// error rendered into the cell.
func modeValueText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return "", &functions.Error{Kind: functions.KindInvalidInput, Message: `modeValue must be grid text like "15min" or a whole number of points`}
}
