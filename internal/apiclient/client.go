// Package apiclient is the web tier's typed client for the JSON API. Every
// request carries the session's bearer token; a 401 response clears the
// stored token and navigates to "/" exactly once, no matter how many callers
// hit it concurrently.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// TokenStore supplies the session's bearer token and clears it when the API
// rejects it.
type TokenStore interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string
	// Clear removes the stored token if it still equals the given one,
	// reporting whether it was cleared. The first concurrent 401 wins.
	Clear(token string) bool
}

// Navigator redirects the browser session.
type Navigator interface {
	NavigateTo(path string)
}

// Error is a non-2xx API response. Message carries the body's detail field
// when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an API 404, used to distinguish optional
// resources (no plan yet, no profile yet) from real failures.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is an API 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client calls the API tier on behalf of one web session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	nav        Navigator
}

// New creates a Client rooted at baseURL. The cookie jar lets the API's
// same-origin session cookie ride along with bearer auth.
func New(baseURL string, tokens TokenStore, nav Navigator) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		tokens: tokens,
		nav:    nav,
	}
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the API to clear its cookie. Local session state is the
// caller's problem.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// GetProfile fetches the athlete's race goal. 404 means onboarding has not
// been completed.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile creates or updates the athlete's race goal.
func (c *Client) CreateProfile(ctx context.Context, input ProfileInput) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodPost, "/api/profile", input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListRuns fetches one page of synced runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit, offset int) (*RunsList, error) {
	path := fmt.Sprintf("/api/runs?limit=%d&offset=%d", limit, offset)
	var list RunsList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SyncRuns triggers a synchronous Strava sync.
func (c *Client) SyncRuns(ctx context.Context) (*SyncResult, error) {
	var result SyncResult
	if err := c.do(ctx, http.MethodPost, "/api/runs/sync", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPlan fetches the latest training plan. 404 means none exists yet.
func (c *Client) GetPlan(ctx context.Context) (*Plan, error) {
	var plan Plan
	if err := c.do(ctx, http.MethodGet, "/api/training-plan", nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GeneratePlan asks the API to generate (or regenerate) a training plan and
// returns the stored result.
func (c *Client) GeneratePlan(ctx context.Context, regenerate bool) (*Plan, error) {
	body := map[string]bool{"regenerate": regenerate}
	var plan Plan
	if err := c.do(ctx, http.MethodPost, "/api/training-plan/generate", body, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := c.tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures surface untyped.
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(token)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// handleUnauthorized clears the rejected token and sends the session home.
// Only the request whose token actually transitions out of the store
// navigates, so a burst of concurrent 401s redirects once.
func (c *Client) handleUnauthorized(usedToken string) {
	if usedToken == "" {
		return
	}
	if c.tokens.Clear(usedToken) {
		c.nav.NavigateTo("/")
	}
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		apiErr.Message = body.Detail
	}
	return apiErr
}
