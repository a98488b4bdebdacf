package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/http/handlers"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs from the outside. Ping may be nil.
type Deps struct {
	Users  handlers.UserStore
	Posts  handlers.PostStore
	Votes  handlers.VoteStore
	Ping   func(ctx context.Context) error
	Tokens *auth.Manager
	Prom   *observability.Prom
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	health := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	gate := auth.NewGate(deps.Tokens, deps.Users)
	authMw := middlewares.NewAuthMiddleware(gate, deps.Prom, handlers.RespondAuthError)

	usersHandler := handlers.NewUsersHandler(deps.Users)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens)
	postsHandler := handlers.NewPostsHandler(deps.Posts)
	votesHandler := handlers.NewVotesHandler(deps.Posts, deps.Votes, deps.Prom)

	// login also takes OAuth2-style form posts, so it stays outside the JSON guard
	r.POST("/login", authHandler.Login)

	api := r.Group("/")
	api.Use(middlewares.RequireJSON())
	{
		api.POST("/users", usersHandler.Create)
		api.GET("/users/:id", usersHandler.Get)

		api.GET("/posts", postsHandler.List)
		api.GET("/posts/:id", postsHandler.Get)
	}

	// credentials are checked before the content type
	authed := r.Group("/")
	authed.Use(authMw.RequireAuth(), middlewares.RequireJSON())
	{
		authed.POST("/posts", postsHandler.Create)
		authed.PUT("/posts/:id", postsHandler.Update)
		authed.DELETE("/posts/:id", postsHandler.Delete)

		authed.POST("/votes", votesHandler.Cast)
	}

	return r
}
