package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// AuthAPI is the slice of the scheduling API used for accounts.
type AuthAPI interface {
	Register(ctx context.Context, req schedulerapi.RegisterRequest) (*schedulerapi.Registration, error)
	Login(ctx context.Context, email, password string) (*schedulerapi.TokenResponse, error)
	GetProfile(ctx context.Context) (*schedulerapi.Profile, error)
	UpdateProfile(ctx context.Context, update schedulerapi.ProfileUpdate) (*schedulerapi.Profile, error)
}

// Authenticator manages the persisted credential: registration, login,
// logout and the explicit profile-updated event.
type Authenticator struct {
	api      AuthAPI
	store    Store
	resolver *Resolver
	logger   *logging.Logger
}

// NewAuthenticator wires an Authenticator. The api client should read its
// bearer token from store (see TokenSource) so the profile fetch after login
// is authenticated.
func NewAuthenticator(api AuthAPI, store Store, resolver *Resolver, logger *logging.Logger) *Authenticator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Authenticator{api: api, store: store, resolver: resolver, logger: logger}
}

// Login authenticates, persists the token and caches the profile. A failed
// profile fetch is not fatal; the token alone identifies the user.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Identity, error) {
	tok, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return a.establish(ctx, tok.BearerToken(), nil)
}

// Register creates the account and leaves the user logged in. When the
// server does not issue a token on registration, a login follows.
func (a *Authenticator) Register(ctx context.Context, req schedulerapi.RegisterRequest) (*Identity, error) {
	reg, err := a.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	a.logger.Info("identity: account registered", "user_id", reg.ID, "role", reg.Role)
	if tok := reg.BearerToken(); tok != "" {
		var profile *schedulerapi.Profile
		if reg.ID != "" {
			profile = &reg.Profile
		}
		return a.establish(ctx, tok, profile)
	}
	return a.Login(ctx, req.Email, req.Password)
}

// UpdateProfile saves update on the server and raises the profile-updated
// event with the stored result.
func (a *Authenticator) UpdateProfile(ctx context.Context, update schedulerapi.ProfileUpdate) (*Identity, error) {
	if _, err := a.store.LoadToken(ctx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	profile, err := a.api.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	return a.ProfileUpdated(ctx, profile)
}

// establish persists token and caches profile, fetching it when nil. A
// failed profile fetch is not fatal.
func (a *Authenticator) establish(ctx context.Context, token string, profile *schedulerapi.Profile) (*Identity, error) {
	if err := a.store.ClearProfile(ctx); err != nil {
		return nil, err
	}
	if err := a.store.SaveToken(ctx, token); err != nil {
		return nil, err
	}

	if profile == nil {
		var err error
		if profile, err = a.api.GetProfile(ctx); err != nil {
			a.logger.Warn("identity: profile fetch after login failed", "error", err)
		}
	}
	if profile != nil {
		if _, err := a.ProfileUpdated(ctx, profile); err != nil {
			a.logger.Warn("identity: caching profile failed", "error", err)
		}
	}

	id := a.resolver.Resolve(ctx)
	if id == nil {
		return nil, errors.New("identity: server issued an unusable token")
	}
	return id, nil
}

// ProfileUpdated caches profile as the authoritative identity and returns it.
func (a *Authenticator) ProfileUpdated(ctx context.Context, profile *schedulerapi.Profile) (*Identity, error) {
	if profile == nil || profile.ID == "" {
		return nil, errors.New("identity: profile has no id")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("identity: encode profile: %w", err)
	}
	if err := a.store.SaveProfile(ctx, data); err != nil {
		return nil, err
	}
	return ParseProfile(data)
}

// Logout removes every stored credential.
func (a *Authenticator) Logout(ctx context.Context) error {
	return errors.Join(a.store.ClearToken(ctx), a.store.ClearProfile(ctx))
}

// TokenSource exposes the stored token to the API client.
func TokenSource(store Store) schedulerapi.TokenSource {
	return func(ctx context.Context) string {
		tok, err := store.LoadToken(ctx)
		if err != nil {
			return ""
		}
		return tok
	}
}
