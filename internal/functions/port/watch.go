package port

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tsflow/sidecar/internal/functions"
)

// watcher polls the configured sensors and pushes each current value to
// the hub. It stays quiet while no pane is connected.
type watcher struct {
	service  *functions.Service
	hub      *Hub
	sensors  []string
	interval time.Duration
	gauge    metric.Float64Gauge
}

func newWatcher(service *functions.Service, hub *Hub, sensors []string, interval time.Duration) (*watcher, error) {
	meter := otel.Meter("functions")

	gauge, err := meter.Float64Gauge(
		"sensors.current",
		metric.WithDescription("Latest watched sensor value"),
	)
	if err != nil {
		log.Error().
			Err(err).
			Msg("watch: cannot create meter gauge instance")
		return nil, err
	}

	return &watcher{
		service:  service,
		hub:      hub,
		sensors:  sensors,
		interval: interval,
		gauge:    gauge,
	}, nil
}

func (w *watcher) run(ctx context.Context) {
	if len(w.sensors) == 0 {
		log.Debug().Msg("watch: no sensors configured, watcher idle")
		return
	}
	log.Info().Strs("sensors", w.sensors).Dur("interval", w.interval).Msg("watch: polling")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.hub.ClientCount() == 0 {
				continue
			}
			w.poll(ctx)
		}
	}
}

func (w *watcher) poll(ctx context.Context) {
	for _, sensor := range w.sensors {
		update := WatchUpdate{Sensor: sensor, Timestamp: time.Now().Format(time.RFC3339)}
		value, err := w.service.Current(ctx, sensor)
		if err != nil {
			update.Error = functions.ErrorString(err)
		} else {
			update.Value = value
			if number, ok := value.(float64); ok {
				w.gauge.Record(ctx, number, metric.WithAttributes(attribute.String("sensor", sensor)))
			}
		}

		payload, err := json.Marshal(update)
		if err != nil {
			log.Error().
				Err(err).
				Str("sensor", sensor).
				Msg("watch: cannot encode update")
			continue
		}
		w.hub.Broadcast(payload)
	}
}
