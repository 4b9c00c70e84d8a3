package middleware

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/tsflow/sidecar/internal/common/config"
)

type Middleware struct {
	api    huma.API
	config config.Config
}

func NewMiddleware(api huma.API, config config.Config) Middleware {
	return Middleware{api, config}
}
