package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type landingData struct {
	ConnectURL string
	Error      string
}

// handleLanding renders the login page, or forwards an already-authenticated
// session to where it belongs.
func (s *Server) handleLanding(c *gin.Context) {
	if token := s.sessionToken(c); token != "" {
		state := s.sessions.Get(token).Init(c.Request.Context())
		if state.IsAuthenticated {
			c.Redirect(http.StatusFound, homeFor(state.User.HasProfile))
			return
		}
	}

	s.renderPage(c, "login.html", PageData{
		Title: "Sign in",
		Data: landingData{
			ConnectURL: s.cfg.APIBaseURL + "/auth/strava",
			Error:      flashError(c.Query("error")),
		},
	})
}

// handleAuthCallback receives the token minted by the API tier after the
// Strava OAuth dance and turns it into a browser session.
func (s *Server) handleAuthCallback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Redirect(http.StatusFound, "/?error=auth_failed")
		return
	}

	sess := s.sessions.Get(token)
	state := sess.Login(c.Request.Context(), token)
	if !state.IsAuthenticated {
		s.logger.Warn("login token did not resolve", "error", state.Err)
		s.sessions.Remove(token)
		c.Redirect(http.StatusFound, "/?error=auth_failed")
		return
	}

	if err := s.saveWebSession(c, token); err != nil {
		s.logger.Error("failed to save web session", "error", err)
		s.sessions.Remove(token)
		c.Redirect(http.StatusFound, "/?error=auth_failed")
		return
	}

	c.Redirect(http.StatusFound, homeFor(state.User.HasProfile))
}

// handleLogout ends the browser session: best-effort API logout, local
// teardown, back to the login page.
func (s *Server) handleLogout(c *gin.Context) {
	if token := s.sessionToken(c); token != "" {
		sess := s.sessions.Get(token)
		sess.Logout(c.Request.Context())
		s.sessions.Remove(token)
	}
	s.clearWebSession(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// homeFor picks the landing spot for an authenticated user.
func homeFor(hasProfile bool) string {
	if hasProfile {
		return "/dashboard"
	}
	return "/onboarding"
}

func flashError(code string) string {
	switch code {
	case "":
		return ""
	case "auth_failed":
		return "Strava sign-in failed. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
