package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	authport "github.com/tsflow/sidecar/internal/auth/port"
	"github.com/tsflow/sidecar/internal/common/errors"
	"github.com/tsflow/sidecar/internal/common/middleware"
	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/functions"
	functionsport "github.com/tsflow/sidecar/internal/functions/port"
	"github.com/tsflow/sidecar/internal/seeq"
	"github.com/tsflow/sidecar/internal/sheet"
	"github.com/tsflow/sidecar/internal/utility"
)

func setup(ctx context.Context) error {
	middleware := middleware.NewMiddleware(api, cfg)

	var store credential.Store
	switch cfg.Credentials.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Credentials.RedisAddr,
			DB:   cfg.Credentials.RedisDb,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		store = credential.NewRedisStore(client, cfg.Credentials.Profile)
		log.Info().Str("addr", cfg.Credentials.RedisAddr).Msg("credential: redis backend")
	case "memory":
		store = credential.NewMemoryStore()
		log.Info().Msg("credential: in-memory backend")
	default:
		// config.Load pins the backend to a known value before setup runs.
		return errors.NewInternalError(fmt.Sprintf("app: unhandled credential backend %q", cfg.Credentials.Backend))
	}

	client := seeq.NewClient(cfg.Runner.BaseUrl, time.Duration(cfg.Runner.TimeoutSeconds)*time.Second)

	serviceOptions := []functions.Option{}
	if cfg.Convention == "utc" {
		serviceOptions = append(serviceOptions, functions.WithConvention(sheet.ConventionUTCClock))
	}
	if cfg.Timezone != "" {
		location, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return err
		}
		serviceOptions = append(serviceOptions, functions.WithLocation(location))
	}
	service := functions.NewService(store, client, serviceOptions...)

	utility.RegisterHandler(ctx, api)
	authport.RegisterHandler(ctx, api, middleware, store, client)
	return functionsport.RegisterHandler(
		ctx,
		api,
		router,
		middleware,
		service,
		cfg.Watch.Sensors,
		time.Duration(cfg.Watch.IntervalSeconds)*time.Second,
	)
}
