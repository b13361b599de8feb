package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// ErrExpired is returned by Decode for a well-formed token past its expiry.
var ErrExpired = errors.New("identity: token expired")

// Resolver derives the current Identity from a Store.
type Resolver struct {
	store  Store
	secret []byte
	now    func() time.Time
	logger *logging.Logger
}

// NewResolver creates a resolver. When secret is non-empty tokens must carry a
// valid HMAC signature; otherwise they are decoded without verification, the
// same trust level a browser has when it reads its own token.
func NewResolver(store Store, secret string, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{store: store, now: time.Now, logger: logger}
	if secret != "" {
		r.secret = []byte(secret)
	}
	return r
}

// Resolve returns the current identity or nil. It never fails: unreadable or
// corrupt credentials are logged, cleared and reported as unauthenticated.
func (r *Resolver) Resolve(ctx context.Context) *Identity {
	if r == nil || r.store == nil {
		return nil
	}

	if id := r.fromProfile(ctx); id != nil {
		return id
	}

	token, err := r.store.LoadToken(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("identity: token unreadable", "error", err)
		}
		return nil
	}

	id, err := r.Decode(token)
	switch {
	case err == nil:
		return id
	case errors.Is(err, ErrExpired):
		r.logger.Info("identity: stored token expired")
		return nil
	default:
		r.logger.Warn("identity: clearing invalid token", "error", err)
		if clearErr := r.store.ClearToken(ctx); clearErr != nil {
			r.logger.Warn("identity: failed to clear invalid token", "error", clearErr)
		}
		return nil
	}
}

// fromProfile returns the cached profile when it is a JSON object naming a
// user. A cached profile overrides the token, e.g. right after a profile edit.
func (r *Resolver) fromProfile(ctx context.Context) *Identity {
	data, err := r.store.LoadProfile(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("identity: profile unreadable", "error", err)
		}
		return nil
	}

	id, err := ParseProfile(data)
	if err != nil {
		r.logger.Warn("identity: clearing corrupt cached profile", "error", err)
		if clearErr := r.store.ClearProfile(ctx); clearErr != nil {
			r.logger.Warn("identity: failed to clear cached profile", "error", clearErr)
		}
		return nil
	}
	return id
}

// ParseProfile reads a cached profile object.
func ParseProfile(data []byte) (*Identity, error) {
	var claims map[string]any
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if claims == nil {
		return nil, errors.New("profile is not an object")
	}
	id := fromClaims(claims)
	if id.ID == "" {
		return nil, errors.New("profile has no user id")
	}
	return id, nil
}

// Decode turns a bearer token into an Identity.
func (r *Resolver) Decode(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := jwt.MapClaims{}
	if len(r.secret) > 0 {
		parser := jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithTimeFunc(r.now),
		)
		_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return r.secret, nil
		})
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		if err != nil {
			return nil, fmt.Errorf("verify token: %w", err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
	}

	id := fromClaims(claims)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.TokenExpiry = exp.Time
		if !r.now().Before(exp.Time) {
			return nil, ErrExpired
		}
	}
	if id.ID == "" {
		return nil, errors.New("token has no user id claim")
	}
	return id, nil
}

func fromClaims(claims map[string]any) *Identity {
	return &Identity{
		ID:    firstClaim(claims, "user_id", "id", "sub"),
		Name:  firstClaim(claims, "name", "full_name"),
		Email: firstClaim(claims, "email"),
		Role:  ParseRole(firstClaim(claims, "role")),
	}
}

func firstClaim(claims map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}
