package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeTokens struct {
	mu     sync.Mutex
	token  string
	clears int
}

func (f *fakeTokens) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Clear(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" || f.token != token {
		return false
	}
	f.token = ""
	f.clears++
	return true
}

func (f *fakeTokens) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

type fakeNav struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeNav) NavigateTo(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
}

func (f *fakeNav) navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func newTestClient(serverURL, token string) (*Client, *fakeTokens, *fakeNav) {
	tokens := &fakeTokens{token: token}
	nav := &fakeNav{}
	return New(serverURL, tokens, nav), tokens, nav
}

func TestMeSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/auth/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "strava_id": 4242, "name": "Test Runner", "has_profile": true,
		})
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok-123")
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != 1 || user.StravaID != 4242 || !user.HasProfile {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Strava not connected"})
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok")
	_, err := client.SyncRuns(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Strava not connected" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestErrorFallsBackToStatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok")
	_, err := client.GetProfile(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Message != "request failed with status 502" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No training plan found. Generate one first."})
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok")
	_, err := client.GetPlan(context.Background())

	if !IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
	if IsUnauthorized(err) {
		t.Fatal("IsUnauthorized should be false for a 404")
	}
}

func TestUnauthorizedClearsTokenAndNavigatesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid or expired token"})
	}))
	defer srv.Close()

	client, tokens, nav := newTestClient(srv.URL, "stale-token")

	// Many callers race the same stale token.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetProfile(context.Background())
			if !IsUnauthorized(err) {
				t.Errorf("expected 401 error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if tokens.Token() != "" {
		t.Fatal("token should be cleared")
	}
	if tokens.clears != 1 {
		t.Fatalf("token cleared %d times, want 1", tokens.clears)
	}
	if got := nav.navigations(); len(got) != 1 || got[0] != "/" {
		t.Fatalf("navigations = %v, want exactly one to /", got)
	}
}

func TestUnauthorizedWithFreshTokenNavigatesAgain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid or expired token"})
	}))
	defer srv.Close()

	client, tokens, nav := newTestClient(srv.URL, "first")

	client.GetProfile(context.Background())
	tokens.set("second")
	client.GetProfile(context.Background())

	if got := nav.navigations(); len(got) != 2 {
		t.Fatalf("navigations = %v, want one per rejected token", got)
	}
}

func TestUnauthorizedWithoutTokenDoesNotNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected")
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
	}))
	defer srv.Close()

	client, tokens, nav := newTestClient(srv.URL, "")

	_, err := client.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if tokens.clears != 0 || len(nav.navigations()) != 0 {
		t.Fatal("anonymous 401 must not clear or navigate")
	}
}

func TestListRunsBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "100" || q.Get("offset") != "25" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(RunsList{Runs: []Run{}, Total: 0})
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok")
	list, err := client.ListRuns(context.Background(), 100, 25)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if list.Total != 0 || len(list.Runs) != 0 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGeneratePlanSendsRegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if !body["regenerate"] {
			t.Error("regenerate should be true")
		}
		json.NewEncoder(w).Encode(Plan{ID: 2, PlanJSON: json.RawMessage(`{"total_weeks":16}`)})
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL, "tok")
	plan, err := client.GeneratePlan(context.Background(), true)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if plan.ID != 2 || string(plan.PlanJSON) != `{"total_weeks":16}` {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}
