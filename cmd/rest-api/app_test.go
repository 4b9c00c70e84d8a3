package main

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsflow/sidecar/internal/common/config"
	"github.com/tsflow/sidecar/internal/common/errors"
)

// setup trusts config.Load to have validated the backend; a value that
// slipped past validation must fail loudly, not fall back to the in-memory
// store.
func TestSetupRejectsUnknownCredentialBackend(t *testing.T) {
	router = chi.NewRouter()
	api = humachi.New(router, huma.DefaultConfig("test", "0.0.1"))
	cfg = config.Config{}
	cfg.Credentials.Backend = "bolt"

	err := setup(context.Background())
	require.Error(t, err)
	var internal *errors.InternalError
	assert.ErrorAs(t, err, &internal)
	assert.ErrorContains(t, err, "bolt")
}
