package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tsflow/sidecar/internal/common/config"
	"github.com/tsflow/sidecar/internal/common/constant"
	"github.com/tsflow/sidecar/internal/common/logging"
	"github.com/tsflow/sidecar/internal/utility"
)

type options struct {
	LogLevel   string `doc:"Log verbosity level" default:"info"`
	ConfigPath string `doc:"Configuration path [REQUIRED]" name:"config"`
}

var (
	api    huma.API
	router *chi.Mux
	cfg    config.Config
)

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *options) {
		logging.Init(options.LogLevel)

		loaded, err := config.Load(options.ConfigPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config: cannot load")
		}
		cfg = loaded
		if cfg.IsDevelopment {
			logging.Pretty()
		}
		ctx, mainCancel := context.WithCancel(context.Background())

		oapi := huma.DefaultConfig("TSFlow Sidecar - OpenAPI 3.0", utility.Version)
		oapi.DocsPath = ""
		oapi.Info.Description = constant.OAPI_SPEC_DESCRIPTION
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			constant.OAPI_SECURITY_SCHEME: {
				Type: "apiKey",
				In:   "header",
				Name: "X-Api-Key",
			},
		}
		oapi.Security = []map[string][]string{
			{constant.OAPI_SECURITY_SCHEME: {}},
		}

		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			log.Fatal().Err(err).Msg("metrics: cannot create prometheus exporter")
		}
		otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))

		router = chi.NewRouter()
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if cfg.IsDevelopment {
			router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				if _, err := w.Write([]byte(constant.OAPI_SPEC_UI)); err != nil {
					log.Debug().Err(err).Msg("docs: failed to write openapi editor ui")
				}
			})
		}

		api = humachi.New(router, oapi)
		if err := setup(ctx); err != nil {
			log.Fatal().Err(err).Msg("app: failed to setup")
		}

		// Loopback only. The add-in runs on the same machine and nothing
		// else should reach the sidecar.
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		server := http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second, // mitigate slowloris attacks
		}

		hooks.OnStart(func() {
			log.Info().Msg(fmt.Sprintf("http: listening on %s", addr))
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg(fmt.Sprintf("http: failed to listen on %s", addr))
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(
				context.Background(),
				time.Duration(cfg.ShutdownTimeout)*time.Second,
			)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				log.Fatal().Err(err).Msg("http: failed to shutdown")
			}
			mainCancel()
			log.Info().Msg("http: shut down complete")
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "spec",
		Short: "Print the OpenAPI specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec []byte
			if len(args) == 1 && args[0] == "legacy" {
				raw, err := api.OpenAPI().DowngradeYAML()
				if err != nil {
					return err
				}
				spec = raw
			} else {
				raw, err := api.OpenAPI().YAML()
				if err != nil {
					return err
				}
				spec = raw
			}
			fmt.Println(string(spec))

			return nil
		},
	})

	cli.Run()
}
