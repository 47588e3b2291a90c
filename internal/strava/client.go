// Package strava talks to the Strava v3 API and syncs activities into the
// local run history.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production Strava endpoint.
const DefaultBaseURL = "https://www.strava.com"

const (
	tokenPath      = "/oauth/token"
	activitiesPath = "/api/v3/athlete/activities"
)

// TokenResponse is the refresh grant reply.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Activity is the slice of a Strava activity we care about.
type Activity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Distance   float64   `json:"distance"` // meters
	MovingTime int       `json:"moving_time"`
	StartDate  time.Time `json:"start_date"`
	Type       string    `json:"type"`
}

// Client handles communication with the Strava API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates a Strava API client.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      DefaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// RefreshToken exchanges a refresh token for a fresh token triple.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &tokens, nil
}

// ListActivities fetches one page of the athlete's activities. A non-zero
// after limits results to activities started after that unix timestamp.
func (c *Client) ListActivities(ctx context.Context, accessToken string, page, perPage int, after int64) ([]Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+activitiesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if after > 0 {
		q.Set("after", strconv.FormatInt(after, 10))
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("activities fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return activities, nil
}
