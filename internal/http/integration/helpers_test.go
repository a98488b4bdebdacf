package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/config"
	apphttp "github.com/geocoder89/postboard/internal/http"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/gin-gonic/gin"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		Store:               "memory",
		JWTSecret:           "test-secret-key",
		JWTAlgorithm:        "HS256",
		JWTAccessTTLMinutes: 60,
		ServiceName:         "postboard-test",
		MaxBodyBytes:        1 << 20,
	}
}

type testServer struct {
	router http.Handler
	tokens *auth.Manager
	prom   *observability.Prom
}

func newTestServer(t *testing.T, deps apphttp.Deps) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTTL())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	deps.Tokens = tokens
	deps.Prom = observability.NewProm()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return &testServer{
		router: apphttp.NewRouter(logger, cfg, deps),
		tokens: tokens,
		prom:   deps.Prom,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, w.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type userResp struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type postResp struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	OwnerID int64    `json:"owner_id"`
	Owner   userResp `json:"owner"`
	Votes   int      `json:"votes"`
}

// register creates a user and logs them in, returning the id and a token.
func (s *testServer) register(t *testing.T, email, password string) (int64, string) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/users", map[string]string{"email": email, "password": password}, "")
	expectStatus(t, w, http.StatusCreated)
	u := decode[userResp](t, w)

	w = s.do(t, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, "")
	expectStatus(t, w, http.StatusOK)
	tok := decode[tokenResp](t, w)

	return u.ID, tok.AccessToken
}

