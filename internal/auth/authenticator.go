package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/pkg/jwt"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

const (
	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
	tokenQueryKey = "token"
)

// TokenAuthenticator resolves a bearer credential to a user identity.
// It has no side effects; failure never refuses the transport-level
// upgrade — the caller accepts first, replies with an error frame, then
// closes.
type TokenAuthenticator struct {
	tokens *jwt.Manager
	users  repository.UserStore
}

func NewTokenAuthenticator(tokens *jwt.Manager, users repository.UserStore) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens, users: users}
}

// ExtractToken pulls the bearer token from the Authorization header, with
// a query-parameter fallback for browser websocket clients that cannot
// set headers.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get(authHeaderKey)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return r.URL.Query().Get(tokenQueryKey)
}

// Authenticate validates the request credential and resolves the subject
// to an existing active user.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, r *http.Request) (domain.Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return domain.Identity{}, errNoToken
	}

	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("token validation failed")
		return domain.Identity{}, errInvalidToken
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.Identity{}, errUserNotFound
		}
		return domain.Identity{}, fmt.Errorf("user lookup: %w", err)
	}
	if !user.IsActive {
		return domain.Identity{}, errUserNotFound
	}

	return domain.Identity{UserID: user.ID, Username: user.Username}, nil
}
