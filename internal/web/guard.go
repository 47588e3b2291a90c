package web

import (
	"net/http"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/session"
)

const (
	ctxSessionKey = "webSession"
	ctxUserKey    = "currentUser"
)

// requireSession gates the protected pages. The browser session must carry
// an API token that resolves to an authenticated user; anything else is sent
// to the login page before a single protected byte is rendered. Sessions
// resolve through the manager, so repeat requests reuse the cached user.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.sessionToken(c)
		if token == "" {
			redirect(c, "/")
			return
		}

		sess := s.sessions.Get(token)
		state := sess.Init(c.Request.Context())
		if !state.IsAuthenticated {
			if sess.Token() == "" {
				// The API rejected the token; the session it named is dead.
				s.clearWebSession(c)
				s.sessions.Remove(token)
			}
			redirect(c, "/")
			return
		}

		c.Set(ctxSessionKey, sess)
		c.Set(ctxUserKey, state.User)
		c.Next()

		// A fetch inside the handler may have hit a 401. The API client
		// records the forced navigation on the store; the guard issues it
		// if the handler has not written a response of its own.
		if path, ok := sess.ConsumeRedirect(); ok && !c.Writer.Written() {
			c.Redirect(http.StatusFound, path)
		}
	}
}

// requireProfile sends athletes who have not finished onboarding to the
// onboarding page before they reach any training view.
func (s *Server) requireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.HasProfile {
			redirect(c, "/onboarding")
			return
		}
		c.Next()
	}
}

// redirect sends the browser to path. HTMX requests get the HX-Redirect
// header so a partial update still produces a full-page navigation.
func redirect(c *gin.Context, path string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", path)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusFound, path)
	c.Abort()
}

func currentUser(c *gin.Context) *apiclient.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*apiclient.User); ok {
			return u
		}
	}
	return nil
}

func currentSession(c *gin.Context) *session.Store {
	if v, ok := c.Get(ctxSessionKey); ok {
		if sess, ok := v.(*session.Store); ok {
			return sess
		}
	}
	return nil
}

func (s *Server) sessionToken(c *gin.Context) string {
	sess := ginsessions.Default(c)
	if token, ok := sess.Get(tokenSessionKey).(string); ok {
		return token
	}
	return ""
}

func (s *Server) saveWebSession(c *gin.Context, token string) error {
	sess := ginsessions.Default(c)
	sess.Set(tokenSessionKey, token)
	return sess.Save()
}

func (s *Server) clearWebSession(c *gin.Context) {
	sess := ginsessions.Default(c)
	sess.Clear()
	sess.Options(ginsessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		s.logger.Warn("failed to clear web session", "error", err)
	}
}
