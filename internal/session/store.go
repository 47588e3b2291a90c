// Package session owns the web tier's view of the authenticated user. Each
// browser session gets one Store that resolves the user through the API
// client exactly once, caches the result, and re-resolves on demand. A
// Manager keeps the live stores keyed by token and evicts idle ones.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
)

// State is a point-in-time snapshot of a session.
type State struct {
	User            *apiclient.User
	IsLoading       bool
	IsAuthenticated bool
	Err             string
}

// Store resolves and caches the authenticated user for one browser session.
// It is the token source and the navigator for its own API client: when any
// request through that client comes back 401, the client clears the token
// here and records a forced navigation to the login page, which the web
// layer consumes at the end of the request.
//
// Every fetch carries an issue sequence; only the latest issued fetch may
// write its result. Anything that invalidates the in-flight fetch (a newer
// refresh, a token clear, logout, close) bumps the sequence, so a stale
// response settling late can never clobber the current state.
type Store struct {
	client *apiclient.Client
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	token    string
	state    State
	redirect string
	seq      uint64
	started  bool
	closed   bool

	resolveOnce sync.Once
	resolved    chan struct{}
}

// New creates a Store for the given bearer token. The store starts in the
// loading state and builds its own API client with itself as token source
// and navigator.
func New(apiBaseURL, token string, logger *slog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		token:    token,
		state:    State{IsLoading: true},
		resolved: make(chan struct{}),
	}
	s.client = apiclient.New(apiBaseURL, s, s)
	return s
}

// Client returns the API client bound to this session's token.
func (s *Store) Client() *apiclient.Client {
	return s.client
}

// State returns the current session snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init resolves the session exactly once. The first caller issues the fetch;
// concurrent callers block until that first resolution settles instead of
// issuing their own. A failed resolution is terminal until Refresh.
func (s *Store) Init(ctx context.Context) State {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		select {
		case <-s.resolved:
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		return s.State()
	}
	s.started = true
	s.mu.Unlock()

	return s.fetch(ctx)
}

// Refresh flips the session into loading and re-resolves the user.
// Overlapping refreshes are safe: the newest one wins.
func (s *Store) Refresh(ctx context.Context) State {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return s.fetch(ctx)
}

// Login stores a freshly minted token and resolves the session with it.
func (s *Store) Login(ctx context.Context, token string) State {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Logout asks the API to drop its cookie, then clears the local session and
// records a navigation to the login page. Backend failures are logged, never
// surfaced, and never block the local teardown.
func (s *Store) Logout(ctx context.Context) {
	callCtx, cancel := s.scope(ctx)
	err := s.client.Logout(callCtx)
	cancel()
	if err != nil {
		s.logger.Warn("backend logout failed", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.seq++ // discard any in-flight fetch
	s.state = State{}
	s.redirect = "/"
	s.mu.Unlock()
	s.markResolved()
}

// Close tears the store down. The store context is cancelled, so an
// in-flight fetch that settles afterwards is a guaranteed no-op, and any
// Init waiters are released.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.markResolved()
}

func (s *Store) fetch(ctx context.Context) State {
	s.mu.Lock()
	if s.closed {
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.seq++
	seq := s.seq
	s.state.IsLoading = true
	s.mu.Unlock()

	callCtx, cancel := s.scope(ctx)
	user, err := s.client.Me(callCtx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.markResolved()

	if s.closed || seq != s.seq {
		// Superseded while in flight; the result is stale.
		return s.state
	}
	if err != nil {
		s.state = State{Err: err.Error()}
		return s.state
	}
	s.state = State{User: user, IsAuthenticated: true}
	return s.state
}

func (s *Store) markResolved() {
	s.resolveOnce.Do(func() { close(s.resolved) })
}

// scope derives a call context that ends when either the request or the
// store's lifetime does.
func (s *Store) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// Token implements apiclient.TokenStore.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Clear implements apiclient.TokenStore. The API rejected the token, so the
// session it identified is over: drop the token and the resolved user, and
// invalidate whatever fetch carried the rejected request. Only the first
// clear of a given token reports true.
func (s *Store) Clear(used string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.token != used {
		return false
	}
	s.token = ""
	s.seq++
	s.state = State{Err: "session expired"}
	return true
}

// NavigateTo implements apiclient.Navigator by recording a pending redirect
// for the web layer to issue on the active response.
func (s *Store) NavigateTo(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirect = path
}

// ConsumeRedirect returns and clears the pending navigation, if any.
func (s *Store) ConsumeRedirect() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.redirect
	s.redirect = ""
	return path, path != ""
}
