// Package httpapi assembles the JSON API tier: Strava OAuth, profile, runs,
// and training plan endpoints consumed by the web tier and any other client.
// Errors are returned as {"detail": "..."} bodies.
package httpapi

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/auth"
	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/health"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RunSyncer pulls new Strava activities for one user.
type RunSyncer interface {
	SyncUser(ctx context.Context, user *models.User) (int, error)
}

// PlanGenerator produces a training plan document for a profile.
type PlanGenerator interface {
	Generate(ctx context.Context, profile *models.Profile) ([]byte, error)
}

// Server holds the API tier's dependencies.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store.Store
	auth      *auth.Handler
	syncer    RunSyncer
	generator PlanGenerator
}

// NewServer creates the API tier.
func NewServer(cfg *config.Config, logger *slog.Logger, st store.Store, authHandler *auth.Handler, syncer RunSyncer, generator PlanGenerator) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		auth:      authHandler,
		syncer:    syncer,
		generator: generator,
	}
}

// Router assembles the gin engine with middleware and all API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/", s.handleRoot)
	r.GET("/health", gin.WrapF(health.Handler))

	r.GET("/auth/strava", s.auth.HandleLogin)
	r.GET("/auth/strava/callback", s.auth.HandleCallback)
	r.POST("/auth/logout", s.auth.HandleLogout)

	authed := r.Group("/", auth.RequireUser(s.store.Users, s.cfg.JWTSecret))
	authed.GET("/auth/me", s.auth.HandleMe)

	api := authed.Group("/api")
	api.GET("/profile", s.handleGetProfile)
	api.POST("/profile", s.handleCreateProfile)
	api.GET("/runs", s.handleListRuns)
	api.POST("/runs/sync", s.handleSyncRuns)
	api.GET("/training-plan", s.handleGetPlan)
	api.POST("/training-plan/generate", s.handleGeneratePlan)

	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "Marathon Training Tracker API",
		"version": "1.0.0",
	})
}

// Preview deployments of the web tier get per-branch hostnames, so the
// configured frontend origin is supplemented with a hostname pattern.
var previewOriginPattern = regexp.MustCompile(`^https://marathon-trainer-web-[^.]+\.vercel\.app$`)

func (s *Server) corsConfig() cors.Config {
	origins := []string{"http://localhost:3000"}
	if u := strings.TrimRight(s.cfg.FrontendURL, "/"); u != "" && u != origins[0] {
		origins = append(origins, u)
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowOriginFunc:  previewOriginPattern.MatchString,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
