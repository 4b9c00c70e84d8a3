// Package port exposes the task pane's connection endpoints: sign in, sign
// out, session status and Seeq server probes.
package port

import (
	"context"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/tsflow/sidecar/internal/common/constant"
	"github.com/tsflow/sidecar/internal/common/errors"
	"github.com/tsflow/sidecar/internal/common/httperr"
	"github.com/tsflow/sidecar/internal/common/middleware"
	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/seeq"
)

const defaultAuthProvider = "Seeq"

type handler struct {
	store  credential.Store
	client *seeq.Client
}

func RegisterHandler(
	ctx context.Context,
	router huma.API,
	middleware middleware.Middleware,
	store credential.Store,
	client *seeq.Client,
) {
	h := handler{store: store, client: client}

	security := []map[string][]string{{constant.OAPI_SECURITY_SCHEME: {}}}
	guard := huma.Middlewares{middleware.NewApiKeyGuard()}

	huma.Register(router, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Sign in to Seeq",
		Description: "Verifies the sign-in against the Seeq server and keeps it for spreadsheet functions. A rejected sign-in is a 200 with success=false; only transport problems become HTTP errors.",
		Tags:        []string{constant.OAPI_TAG_AUTH},
		Security:    security,
		Middlewares: guard,
	}, h.Login)

	huma.Register(router, huma.Operation{
		OperationID: "auth-status",
		Method:      http.MethodGet,
		Path:        "/auth/status",
		Summary:     "Current sign-in status",
		Tags:        []string{constant.OAPI_TAG_AUTH},
		Security:    security,
		Middlewares: guard,
	}, h.Status)

	huma.Register(router, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Sign out",
		Tags:        []string{constant.OAPI_TAG_AUTH},
		Security:    security,
		Middlewares: guard,
	}, h.Logout)

	huma.Register(router, huma.Operation{
		OperationID: "test-server-connection",
		Method:      http.MethodPost,
		Path:        "/server/test",
		Summary:     "Probe a Seeq server",
		Tags:        []string{constant.OAPI_TAG_SERVER},
		Security:    security,
		Middlewares: guard,
	}, h.TestConnection)

	huma.Register(router, huma.Operation{
		OperationID: "server-info",
		Method:      http.MethodGet,
		Path:        "/server/info",
		Summary:     "Seeq server details",
		Tags:        []string{constant.OAPI_TAG_SERVER},
		Security:    security,
		Middlewares: guard,
	}, h.ServerInfo)
}

func (h handler) Login(ctx context.Context, input *struct{ Body LoginRequest }) (*struct{ Body LoginResult }, error) {
	body := input.Body
	fields := map[string]string{}
	if body.ServerUrl == "" {
		fields["body.serverUrl"] = "must not be empty"
	}
	if body.AccessKey == "" {
		fields["body.accessKey"] = "must not be empty"
	}
	if body.Password == "" {
		fields["body.password"] = "must not be empty"
	}
	if len(fields) > 0 {
		return httperr.Handle[struct{ Body LoginResult }](ctx, errors.NewValidationError(fields))
	}
	if body.AuthProvider == "" {
		body.AuthProvider = defaultAuthProvider
	}

	result, err := h.client.Authenticate(ctx, seeq.Auth{
		ServerURL:       body.ServerUrl,
		AccessKey:       body.AccessKey,
		Password:        body.Password,
		AuthProvider:    body.AuthProvider,
		IgnoreSSLErrors: body.IgnoreSslErrors,
	})
	if err != nil {
		errRemote := new(seeq.RemoteError)
		if goerrors.As(err, &errRemote) && !errRemote.Unavailable() {
			log.Info().Str("server", body.ServerUrl).Msg("auth: seeq rejected sign-in")
			return &struct{ Body LoginResult }{Body: LoginResult{Success: false, Message: errRemote.Reason}}, nil
		}
		return httperr.Handle[struct{ Body LoginResult }](ctx, err)
	}

	creds := credential.Credentials{
		ServerURL:       body.ServerUrl,
		AccessKey:       body.AccessKey,
		Password:        body.Password,
		AuthProvider:    body.AuthProvider,
		IgnoreSSLErrors: body.IgnoreSslErrors,
		CreatedAt:       time.Now(),
	}
	if err := h.store.Put(ctx, creds); err != nil {
		return httperr.Handle[struct{ Body LoginResult }](ctx, err)
	}

	log.Info().Str("server", body.ServerUrl).Str("user", result.User).Msg("auth: signed in")
	message := result.Message
	if message == "" {
		message = "Signed in to Seeq"
	}
	return &struct{ Body LoginResult }{Body: LoginResult{
		Success:   true,
		Message:   message,
		User:      result.User,
		ExpiresAt: creds.ExpiresAt().Format(time.RFC3339),
	}}, nil
}

func (h handler) Status(ctx context.Context, _ *struct{}) (*struct{ Body AuthStatus }, error) {
	creds, err := h.store.Get(ctx)
	if err != nil {
		if goerrors.Is(err, credential.ErrNoCredentials) {
			return &struct{ Body AuthStatus }{Body: AuthStatus{Authenticated: false}}, nil
		}
		return httperr.Handle[struct{ Body AuthStatus }](ctx, err)
	}
	return &struct{ Body AuthStatus }{Body: AuthStatus{
		Authenticated: true,
		ServerUrl:     creds.ServerURL,
		AuthProvider:  creds.AuthProvider,
		ExpiresAt:     creds.ExpiresAt().Format(time.RFC3339),
	}}, nil
}

func (h handler) Logout(ctx context.Context, _ *struct{}) (*struct{ Body Ack }, error) {
	if err := h.store.Clear(ctx); err != nil {
		return httperr.Handle[struct{ Body Ack }](ctx, err)
	}
	log.Info().Msg("auth: signed out")
	return &struct{ Body Ack }{Body: Ack{Success: true, Message: "Signed out"}}, nil
}

func (h handler) TestConnection(ctx context.Context, input *struct{ Body TestConnectionRequest }) (*struct{ Body Ack }, error) {
	if input.Body.ServerUrl == "" {
		return httperr.Handle[struct{ Body Ack }](ctx, errors.NewFieldError("body.serverUrl", "must not be empty"))
	}
	message, err := h.client.TestConnection(ctx, seeq.TestConnectionRequest{
		ServerURL:       input.Body.ServerUrl,
		IgnoreSSLErrors: input.Body.IgnoreSslErrors,
	})
	if err != nil {
		errRemote := new(seeq.RemoteError)
		if goerrors.As(err, &errRemote) && !errRemote.Unavailable() {
			return &struct{ Body Ack }{Body: Ack{Success: false, Message: errRemote.Reason}}, nil
		}
		return httperr.Handle[struct{ Body Ack }](ctx, err)
	}
	if message == "" {
		message = "Server reachable"
	}
	return &struct{ Body Ack }{Body: Ack{Success: true, Message: message}}, nil
}

func (h handler) ServerInfo(ctx context.Context, input *struct {
	Url string `query:"url" required:"true" doc:"Seeq server base URL"`
}) (*struct{ Body ServerInfo }, error) {
	info, err := h.client.ServerInfo(ctx, input.Url)
	if err != nil {
		return httperr.Handle[struct{ Body ServerInfo }](ctx, err)
	}
	return &struct{ Body ServerInfo }{Body: ServerInfo{ServerUrl: info.ServerURL, Version: info.Version}}, nil
}
