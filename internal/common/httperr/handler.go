package httperr

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	_errors "github.com/tsflow/sidecar/internal/common/errors"
	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/seeq"
)

// Handle maps domain errors onto transport errors for the handlers that do
// speak HTTP failures: auth, server and task-pane endpoints. The
// /functions handlers never route function-level failures through here;
// those render as cell text in a 200 response.
func Handle[T any](ctx context.Context, err error) (*T, error) {
	errValidation := new(_errors.ValidationError)
	if errors.As(err, &errValidation) {
		return nil, huma.Error400BadRequest(errValidation.Error(), errValidation.ProblemDetails())
	}

	if errors.Is(err, credential.ErrNoCredentials) {
		return nil, huma.Error401Unauthorized("not signed in")
	}

	errRemote := new(seeq.RemoteError)
	if errors.As(err, &errRemote) {
		if errRemote.Unavailable() {
			log.Error().Err(err).Msg("httperr: runner unavailable")
			return nil, huma.Error502BadGateway("runner unavailable")
		}
		return nil, huma.Error400BadRequest(errRemote.Reason)
	}

	log.Error().Err(err).Msg("")
	return nil, huma.Error500InternalServerError("something went wrong")
}
