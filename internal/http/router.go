package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/postline/internal/auth"
	"github.com/geocoder89/postline/internal/cache"
	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/http/handlers"
	"github.com/geocoder89/postline/internal/http/middlewares"
	"github.com/geocoder89/postline/internal/notifications"
	"github.com/geocoder89/postline/internal/observability"
	"github.com/geocoder89/postline/internal/redisclient"
	"github.com/geocoder89/postline/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	maxBodyBytes = 1 << 20 // 1 MiB is plenty for a 300-char post
	feedTTL      = 5 * time.Second
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, reg *prometheus.Registry, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("postline"))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	var prom *observability.Prom

	if reg != nil {
		prom = observability.NewProm(reg)
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	postsRepo := postgres.NewPostsRepo(pool, prom)

	// feed cache: shared via redis when configured, in-process otherwise
	var feed handlers.FeedCache

	if rdb != nil {
		feed = redisclient.NewFeed(rdb, feedTTL)
	} else {
		feed = cache.NewFeed(feedTTL)
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{},
	)

	usersHandler := handlers.NewUsersHandler(usersRepo, usersRepo, jwtManager, notifier, cfg)
	postsHandler := handlers.NewPostsHandler(postsRepo, feed)

	authMw := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	// the public auth endpoints are the only brute-forceable surface
	limiter := middlewares.NewRateLimiter(20, time.Minute)
	limited := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.POST("/register", limited, usersHandler.Register)
	r.POST("/login", limited, usersHandler.Login)
	r.GET("/current", authMw.RequireAuth(), usersHandler.Current)

	r.GET("/posts", postsHandler.ListPosts)
	r.GET("/posts/:id", postsHandler.GetPost)
	r.POST("/posts", authMw.RequireAuth(), postsHandler.CreatePost)
	r.DELETE("/posts/:id", authMw.RequireAuth(), postsHandler.DeletePost)
	r.POST("/posts/like/:id", authMw.RequireAuth(), postsHandler.LikePost)
	r.POST("/posts/unlike/:id", authMw.RequireAuth(), postsHandler.UnlikePost)

	return r
}
