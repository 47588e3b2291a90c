package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func meHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":1,"strava_id":4242,"name":%q,"has_profile":true}`, name)
	}
}

func TestInitResolvesOnce(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	var wg sync.WaitGroup
	states := make([]State, 4)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = s.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for i, state := range states {
		if !state.IsAuthenticated || state.User == nil || state.User.Name != "Test Runner" {
			t.Errorf("Init call %d settled unauthenticated: %+v", i, state)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly one fetch, server saw %d", got)
	}
}

func TestInitFailureIsTerminalUntilRefresh(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"detail":"boom"}`)
			return
		}
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	state := s.Init(context.Background())
	if state.IsAuthenticated || state.Err == "" {
		t.Fatalf("expected failed resolution, got %+v", state)
	}

	// No retry on its own: a second Init returns the cached failure.
	if again := s.Init(context.Background()); again.IsAuthenticated || again.Err == "" {
		t.Fatalf("second Init should return the cached failure, got %+v", again)
	}

	fail.Store(false)
	state = s.Refresh(context.Background())
	if !state.IsAuthenticated || state.User == nil {
		t.Fatalf("Refresh after recovery should authenticate, got %+v", state)
	}
}

func TestRefreshIsLoadingWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	done := make(chan State, 1)
	go func() { done <- s.Refresh(context.Background()) }()

	<-entered
	if state := s.State(); !state.IsLoading {
		t.Errorf("expected IsLoading while the fetch is in flight, got %+v", state)
	}

	close(release)
	state := <-done
	if state.IsLoading || !state.IsAuthenticated {
		t.Errorf("expected settled authenticated state, got %+v", state)
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	firstEntered := make(chan struct{})
	firstRelease := make(chan struct{})
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(firstEntered)
			<-firstRelease
			meHandler("stale")(w, r)
			return
		}
		meHandler("fresh")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	firstDone := make(chan State, 1)
	go func() { firstDone <- s.Refresh(context.Background()) }()
	<-firstEntered

	// A second refresh is issued while the first is still in flight.
	state := s.Refresh(context.Background())
	if state.User == nil || state.User.Name != "fresh" {
		t.Fatalf("second refresh should settle with the fresh user, got %+v", state)
	}

	// The first fetch settles late and must not clobber the newer result.
	close(firstRelease)
	<-firstDone
	if state := s.State(); state.User == nil || state.User.Name != "fresh" {
		t.Errorf("stale refresh overwrote newer state: %+v", state)
	}
}

func TestCloseMakesLateFetchNoop(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())

	done := make(chan State, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-entered

	s.Close()
	close(release)

	if state := <-done; state.IsAuthenticated {
		t.Errorf("fetch settling after Close must not authenticate, got %+v", state)
	}
	if state := s.State(); state.IsAuthenticated || state.User != nil {
		t.Errorf("closed store should hold no user, got %+v", state)
	}
}

func TestLoginResolvesWithNewToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"detail":"Not authenticated"}`)
			return
		}
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "", testLogger())
	defer s.Close()

	state := s.Login(context.Background(), "tok-good")
	if !state.IsAuthenticated {
		t.Fatalf("Login should authenticate with the new token, got %+v", state)
	}
	if got := s.Token(); got != "tok-good" {
		t.Errorf("Token() = %q, want %q", got, "tok-good")
	}
}

func TestRejectedTokenClearsSessionAndRecordsNavigation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"Invalid or expired token"}`)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-dead", testLogger())
	defer s.Close()

	state := s.Init(context.Background())
	if state.IsAuthenticated {
		t.Fatalf("rejected token must not authenticate, got %+v", state)
	}
	if got := s.Token(); got != "" {
		t.Errorf("token should be cleared after a 401, still %q", got)
	}

	path, ok := s.ConsumeRedirect()
	if !ok || path != "/" {
		t.Errorf("ConsumeRedirect() = %q, %v, want %q, true", path, ok, "/")
	}
	if _, ok := s.ConsumeRedirect(); ok {
		t.Error("redirect should be consumed exactly once")
	}
}

func TestLogoutTearsDownDespiteBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/logout" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"detail":"boom"}`)
			return
		}
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	if state := s.Init(context.Background()); !state.IsAuthenticated {
		t.Fatalf("setup: Init should authenticate, got %+v", state)
	}

	s.Logout(context.Background())

	state := s.State()
	if state.IsAuthenticated || state.User != nil {
		t.Errorf("Logout should clear the session, got %+v", state)
	}
	if got := s.Token(); got != "" {
		t.Errorf("Logout should drop the token, still %q", got)
	}
	if path, ok := s.ConsumeRedirect(); !ok || path != "/" {
		t.Errorf("Logout should record a navigation to the login page, got %q, %v", path, ok)
	}
}

func TestStoreStartsLoading(t *testing.T) {
	s := New("http://127.0.0.1:0", "tok-1", testLogger())
	defer s.Close()

	if state := s.State(); !state.IsLoading || state.IsAuthenticated {
		t.Errorf("new store should start loading and unauthenticated, got %+v", state)
	}
}

func TestInitHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		meHandler("Test Runner")(w, r)
	}))
	defer srv.Close()
	defer close(release)

	s := New(srv.URL, "tok-1", testLogger())
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	state := s.Init(ctx)
	if state.IsAuthenticated {
		t.Errorf("cancelled fetch must not authenticate, got %+v", state)
	}
}
