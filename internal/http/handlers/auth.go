package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/security"
	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	IssueAccessToken(userID int64) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
}

func NewAuthHandler(users UserStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// LoginRequest accepts either a JSON body or an OAuth2 password-style form,
// where the e-mail arrives as "username".
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required,max=254"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// compared against when the e-mail is unknown so both failure paths pay for bcrypt
var dummyHash = sync.OnceValue(func() string {
	h, _ := security.HashPassword("not-a-real-password")
	return h
})

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		RespondBadRequest(ctx, "Invalid login request", parseBindError(err, &req))
		return
	}

	// short timeout for DB lookup
	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			_ = ctx.Error(err)
			RespondInternal(ctx, "Could not log in")
			return
		}
		security.VerifyPassword(dummyHash(), req.Password)
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if !security.VerifyPassword(found.PasswordHash, req.Password) {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.tokens.IssueAccessToken(found.ID)
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}
