package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/postboard/internal/domain/user"
)

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type SubjectFinder interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type Gate struct {
	tokens TokenVerifier
	users  SubjectFinder
}

func NewGate(tokens TokenVerifier, users SubjectFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate resolves the caller behind an Authorization header value.
func (g *Gate) Authenticate(ctx context.Context, authorization string) (user.User, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return user.User{}, err
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return user.User{}, err
	}

	u, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnknownSubject
		}
		return user.User{}, fmt.Errorf("load token subject %d: %w", claims.UserID, err)
	}

	return u, nil
}

// BearerToken extracts the credential from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(authorization string) (string, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissing
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissing
	}

	return raw, nil
}

// IsAuthError reports whether err belongs to the 401 family.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissing) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUnknownSubject)
}
