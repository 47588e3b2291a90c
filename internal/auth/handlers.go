package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
)

const providerName = "strava"

// UserResponse is the /auth/me payload.
type UserResponse struct {
	ID             uint      `json:"id"`
	StravaID       int64     `json:"strava_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	HasProfile     bool      `json:"has_profile"`
}

// Handler serves the OAuth flow and session endpoints.
type Handler struct {
	users  store.Users
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandler creates an auth Handler.
func NewHandler(users store.Users, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{users: users, cfg: cfg, logger: logger}
}

// HandleLogin initiates the Strava OAuth flow
func (h *Handler) HandleLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", providerName)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleCallback completes the OAuth flow, upserts the athlete and redirects
// to the frontend with a freshly minted JWT.
func (h *Handler) HandleCallback(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", providerName)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		h.logger.Error("oauth callback failed", "error", err)
		c.Redirect(http.StatusFound, h.frontendURL("/?error=auth_failed"))
		return
	}

	stravaID, err := strconv.ParseInt(gothUser.UserID, 10, 64)
	if err != nil {
		h.logger.Error("oauth callback returned non-numeric athlete id", "user_id", gothUser.UserID)
		c.Redirect(http.StatusFound, h.frontendURL("/?error=auth_failed"))
		return
	}

	name := strings.TrimSpace(gothUser.Name)
	if name == "" {
		name = strings.TrimSpace(gothUser.FirstName + " " + gothUser.LastName)
	}

	var expiresAt int64
	if !gothUser.ExpiresAt.IsZero() {
		expiresAt = gothUser.ExpiresAt.Unix()
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByStravaID(ctx, stravaID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = &models.User{
			StravaID:             stravaID,
			Email:                gothUser.Email,
			Name:                 name,
			ProfilePicture:       gothUser.AvatarURL,
			StravaAccessToken:    gothUser.AccessToken,
			StravaRefreshToken:   gothUser.RefreshToken,
			StravaTokenExpiresAt: expiresAt,
		}
		if err := h.users.Create(ctx, user); err != nil {
			h.logger.Error("failed to create user", "strava_id", stravaID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create user"})
			return
		}
	case err != nil:
		h.logger.Error("failed to look up user", "strava_id", stravaID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to look up user"})
		return
	default:
		user.Name = name
		user.ProfilePicture = gothUser.AvatarURL
		user.StravaAccessToken = gothUser.AccessToken
		user.StravaRefreshToken = gothUser.RefreshToken
		user.StravaTokenExpiresAt = expiresAt
		if err := h.users.Save(ctx, user); err != nil {
			h.logger.Error("failed to update user", "strava_id", stravaID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update user"})
			return
		}
	}

	token, err := CreateAccessToken(user.ID, h.cfg.JWTSecret, h.cfg.JWTExpiration)
	if err != nil {
		h.logger.Error("failed to mint access token", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create access token"})
		return
	}

	// Same-origin callers can use the cookie; the web tier takes the token
	// from the redirect and manages its own session.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, token, int(h.cfg.JWTExpiration.Seconds()), "/", "", h.cfg.Env == "production", true)

	h.logger.Info("user authenticated", "user_id", user.ID, "strava_id", stravaID)
	c.Redirect(http.StatusFound, h.frontendURL("/auth/callback?token="+url.QueryEscape(token)))
}

// HandleMe returns the authenticated user.
func (h *Handler) HandleMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:             user.ID,
		StravaID:       user.StravaID,
		Email:          user.Email,
		Name:           user.Name,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		HasProfile:     user.Profile != nil,
	})
}

// HandleLogout clears the token cookie.
func (h *Handler) HandleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", h.cfg.Env == "production", true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) frontendURL(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(h.cfg.FrontendURL, "/"), path)
}
