package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/postboard/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{err: &pgconn.PgError{Code: "23503"}, want: "foreign_key_violation"},
		{err: &pgconn.PgError{Code: "42P01"}, want: "pg_42P01"},
		{err: fmt.Errorf("get post: %w", context.DeadlineExceeded), want: "timeout"},
		{err: context.Canceled, want: "canceled"},
		{err: errors.New("read: i/o timeout"), want: "timeout"},
		{err: errors.New("connection refused"), want: "connection"},
		{err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		if got := ClassifyDBErr(tt.err); got != tt.want {
			t.Fatalf("ClassifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveDB_CountsErrorsButNotNoRows(t *testing.T) {
	p := NewProm()

	_ = p.ObserveDB("posts.get", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("posts.get", func() error { return &pgconn.PgError{Code: "23505"} })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("posts.get", "unique_violation")); got != 1 {
		t.Fatalf("expected 1 unique_violation, got %v", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("expected a single error series, got %d", got)
	}
	if got := testutil.CollectAndCount(p.DbQueryDuration); got != 2 {
		t.Fatalf("expected not_found and error duration series, got %d", got)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom

	p.IncAuthFailure("expired")
	p.IncVote("added")

	called := false
	if err := p.ObserveDB("x", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("nil prom should still run fn")
	}
}

func TestGinHandleMiddleware_RecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm()

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(p.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/3", nil))

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/posts/:id", "200")); got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "postboard_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}

func TestLogger_AddsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")

	ctx := actorctx.WithUserID(context.Background(), 77)
	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at info level, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if rec["user_id"] != float64(77) {
		t.Fatalf("expected user_id 77, got %v", rec["user_id"])
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("dev", "") != slog.LevelDebug {
		t.Fatalf("dev should default to debug")
	}
	if parseLevel("dev", "error") != slog.LevelError {
		t.Fatalf("explicit level should win")
	}
	if parseLevel("prod", "bogus") != slog.LevelInfo {
		t.Fatalf("unknown level should fall back to info")
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside span")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("expected trace_id %s, got %v", span.SpanContext().TraceID(), rec["trace_id"])
	}
	if _, ok := rec["user_id"]; ok {
		t.Fatalf("no caller on context, user_id should be absent")
	}
}

func TestInitTracer_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
