package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProtectedPagesRedirectAnonymous(t *testing.T) {
	f := newWebFixture(t)

	for _, path := range []string{"/dashboard", "/plan", "/runs", "/onboarding"} {
		w := f.get(path)
		if w.Code != http.StatusFound {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusFound)
		}
		if got := location(w); got != "/" {
			t.Errorf("GET %s Location = %q, want %q", path, got, "/")
		}
		if body := w.Body.String(); strings.Contains(body, "Race Goal") || strings.Contains(body, "Run History") {
			t.Errorf("GET %s leaked protected content to an anonymous request", path)
		}
	}
}

func TestGuardSendsHTMXRedirect(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	w := f.do(req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/")
	}
}

func TestGuardRedirectsToOnboardingWithoutProfile(t *testing.T) {
	f := newWebFixture(t)
	f.api.user.HasProfile = false
	f.api.profile = nil
	f.login()

	for _, path := range []string{"/dashboard", "/plan", "/runs"} {
		w := f.get(path)
		if w.Code != http.StatusFound || location(w) != "/onboarding" {
			t.Errorf("GET %s = %d %q, want redirect to /onboarding", path, w.Code, location(w))
		}
	}

	// Onboarding itself stays reachable.
	if w := f.get("/onboarding"); w.Code != http.StatusOK {
		t.Errorf("GET /onboarding status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGuardReusesResolvedSession(t *testing.T) {
	f := newWebFixture(t)
	f.login()

	f.get("/dashboard")
	f.get("/runs")

	f.api.mu.Lock()
	calls := f.api.meCalls
	f.api.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected one session resolution across requests, /auth/me saw %d", calls)
	}
}

// A 401 inside a page handler clears the session and turns the response into
// a redirect to the login page; the dead session never serves again.
func TestExpiredTokenMidRequestRedirects(t *testing.T) {
	f := newWebFixture(t)
	f.login()

	f.api.mu.Lock()
	f.api.profileStatus = http.StatusUnauthorized
	f.api.profileDetail = "Invalid or expired token"
	f.api.mu.Unlock()

	w := f.get("/dashboard")
	if w.Code != http.StatusFound || location(w) != "/" {
		t.Fatalf("GET /dashboard = %d %q, want redirect to /", w.Code, location(w))
	}

	// The next request finds the dead session, clears the cookie, and goes
	// to the login page too.
	w = f.get("/dashboard")
	if w.Code != http.StatusFound || location(w) != "/" {
		t.Fatalf("second GET /dashboard = %d %q, want redirect to /", w.Code, location(w))
	}

	// The cookie is gone, so the guard now short-circuits.
	if len(f.cookies) != 0 {
		t.Errorf("session cookie should be cleared, still have %d cookies", len(f.cookies))
	}
	w = f.get("/dashboard")
	if w.Code != http.StatusFound || location(w) != "/" {
		t.Errorf("third GET /dashboard = %d %q, want redirect to /", w.Code, location(w))
	}
}
