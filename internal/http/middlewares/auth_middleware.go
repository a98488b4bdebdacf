package middlewares

import (
	"context"
	"errors"

	"github.com/geocoder89/postboard/internal/actorctx"
	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (user.User, error)
}

// ErrorResponder writes the failure response for a rejected request.
type ErrorResponder func(c *gin.Context, err error)

type AuthMiddleware struct {
	gate    Authenticator
	prom    *observability.Prom
	respond ErrorResponder
}

func NewAuthMiddleware(gate Authenticator, prom *observability.Prom, respond ErrorResponder) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, prom: prom, respond: respond}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := m.gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			m.prom.IncAuthFailure(failureReason(err))
			m.respond(c, err)
			c.Abort()
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

// CurrentUser returns the caller resolved by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissing):
		return "missing"
	case errors.Is(err, auth.ErrMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "error"
	}
}
