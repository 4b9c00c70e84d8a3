// Package credential stores Seeq sign-ins between spreadsheet function
// calls. Credentials live server-side only; the add-in never sees them
// after sign-in.
package credential

import (
	"context"
	"errors"
	"time"
)

// TTL is how long a stored sign-in stays usable before the user must sign
// in again.
const TTL = 24 * time.Hour

// ErrNoCredentials reports that no live sign-in exists for the profile,
// either because none was saved or because it expired.
var ErrNoCredentials = errors.New("credential: not signed in or session expired")

// Credentials is one saved Seeq sign-in.
type Credentials struct {
	ServerURL       string    `json:"serverUrl"`
	AccessKey       string    `json:"accessKey"`
	Password        string    `json:"password"`
	AuthProvider    string    `json:"authProvider"`
	IgnoreSSLErrors bool      `json:"ignoreSslErrors"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (c Credentials) ExpiresAt() time.Time {
	return c.CreatedAt.Add(TTL)
}

// Store persists credentials between function calls. Implementations return
// ErrNoCredentials once the TTL has lapsed. Callers read on every call and
// never hold on to the result.
type Store interface {
	Put(ctx context.Context, creds Credentials) error
	Get(ctx context.Context) (Credentials, error)
	Clear(ctx context.Context) error
}
