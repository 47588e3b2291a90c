package auth

import (
	"log"
	"net/http"

	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/strava"
)

// InitProviders initializes Goth OAuth providers
func InitProviders(cfg *config.Config) {
	// Configure Gothic's session store used for the OAuth state roundtrip.
	// Gothic uses its own gorilla/sessions store separate from gin-contrib/sessions.
	// The default has Secure=true which breaks localhost (plain HTTP).
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	if cfg.StravaClientID == "" {
		log.Println("WARNING: STRAVA_CLIENT_ID not set. OAuth login will not work until credentials are configured.")
		log.Println("See: Strava settings -> My API Application")
		return
	}

	goth.UseProviders(
		strava.New(
			cfg.StravaClientID,
			cfg.StravaClientSecret,
			cfg.StravaCallbackURL,
			"read",
			"activity:read_all",
			"profile:read_all",
		),
	)

	log.Println("Goth providers initialized: strava")
}
