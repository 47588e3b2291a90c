// Package web serves the runner-facing pages: login, onboarding, dashboard,
// training plan and run history. Pages are rendered server-side and talk to
// the API tier exclusively through each session's API client; nothing in
// this package touches the database.
package web

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/session"
)

const (
	// webSessionName is the browser cookie carrying the API token.
	webSessionName = "marathon_session"
	// tokenSessionKey is where the token lives inside that cookie session.
	tokenSessionKey = "api_token"
)

// Server holds the web tier's dependencies.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Manager
	renderer *renderer

	now func() time.Time
}

// NewServer creates the web tier. It fails only if the embedded templates do
// not parse.
func NewServer(cfg *config.Config, logger *slog.Logger, sessions *session.Manager) (*Server, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		renderer: r,
		now:      time.Now,
	}, nil
}

// Router assembles the gin engine with the cookie session, static assets and
// all page routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	cookieStore := cookie.NewStore([]byte(s.cfg.SessionSecret))
	cookieStore.Options(ginsessions.Options{
		Path:     "/",
		MaxAge:   int(s.cfg.JWTExpiration.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(ginsessions.Sessions(webSessionName, cookieStore))

	staticDir, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(staticDir))

	r.GET("/", s.handleLanding)
	r.GET("/auth/callback", s.handleAuthCallback)
	r.POST("/logout", s.handleLogout)

	authed := r.Group("/", s.requireSession())
	authed.GET("/onboarding", s.handleOnboardingPage)
	authed.POST("/onboarding", s.handleOnboardingSubmit)

	app := authed.Group("/", s.requireProfile())
	app.GET("/dashboard", s.handleDashboard)
	app.GET("/plan", s.handlePlan)
	app.POST("/plan/generate", s.handleGeneratePlan)
	app.GET("/runs", s.handleRuns)
	app.POST("/runs/sync", s.handleSyncRuns)

	return r
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
