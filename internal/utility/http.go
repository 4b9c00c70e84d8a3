package utility

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tsflow/sidecar/internal/common/constant"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type BuildInfo struct {
	Version string `json:"version"`
}

type handler struct {
}

func RegisterHandler(ctx context.Context, router huma.API) {
	h := handler{}

	huma.Register(router, huma.Operation{
		OperationID: "check-health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Check health",
		Tags:        []string{constant.OAPI_TAG_MISC},
		Security:    []map[string][]string{},
	}, h.GetHealthz)

	huma.Register(router, huma.Operation{
		OperationID: "build-info",
		Method:      http.MethodGet,
		Path:        "/version",
		Summary:     "Build version",
		Tags:        []string{constant.OAPI_TAG_MISC},
		Security:    []map[string][]string{},
	}, h.GetVersion)
}

func (h handler) GetHealthz(ctx context.Context, _ *struct{}) (*struct{}, error) {
	return nil, nil
}

func (h handler) GetVersion(ctx context.Context, _ *struct{}) (*struct{ Body BuildInfo }, error) {
	return &struct{ Body BuildInfo }{Body: BuildInfo{Version: Version}}, nil
}
