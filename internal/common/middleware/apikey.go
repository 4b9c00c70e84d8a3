package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

const apiKeyHeader = "X-Api-Key"

// NewApiKeyGuard checks the shared key the add-in sends with each request.
// With no key configured the guard lets everything through, which is the
// usual loopback-only deployment.
func (m Middleware) NewApiKeyGuard() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if m.config.ApiKey == "" {
			next(ctx)
			return
		}
		provided := ctx.Header(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.config.ApiKey)) != 1 {
			if err := huma.WriteErr(m.api, ctx, http.StatusUnauthorized, "missing or invalid api key"); err != nil {
				log.Warn().Err(err).Msg("apikey: failed write http error")
			}
			return
		}
		next(ctx)
	}
}

// NewApiKeyGuardHTTP is the same check for raw chi routes that bypass
// huma, the websocket upgrade being the one such route.
func (m Middleware) NewApiKeyGuardHTTP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.config.ApiKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(m.config.ApiKey)) != 1 {
				http.Error(w, "missing or invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
