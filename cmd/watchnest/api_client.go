package main

import (
	"bytes"
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

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.Status, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

type TokenPair struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Video struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Views       int64   `json:"views"`
	IsPublished bool    `json:"isPublished"`
	Owner       *Owner  `json:"owner"`
}

type VideoPage struct {
	Items      []Video `json:"items"`
	Page       int     `json:"page"`
	Total      int64   `json:"total"`
	TotalPages int64   `json:"totalPages"`
}

type ToggleResult struct {
	IsSubscribed     bool  `json:"isSubscribed"`
	SubscribersCount int64 `json:"subscribersCount"`
}

type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// Register creates a new user account
func (c *APIClient) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users/register", in, "", &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for a token pair. login is matched against
// both username and email.
func (c *APIClient) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	body := map[string]string{"password": password}
	if strings.Contains(login, "@") {
		body["email"] = login
	} else {
		body["username"] = login
	}

	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/users/login", body, "", &pair); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &pair, nil
}

func (c *APIClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/users/refresh-token", body, "", &pair); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &pair, nil
}

func (c *APIClient) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/current-user", nil, token, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

func (c *APIClient) ToggleSubscription(ctx context.Context, token, channelID string) (*ToggleResult, error) {
	var result ToggleResult
	path := "/subscriptions/c/" + url.PathEscape(channelID)
	if err := c.do(ctx, http.MethodPatch, path, nil, token, &result); err != nil {
		return nil, fmt.Errorf("toggle subscription: %w", err)
	}
	return &result, nil
}

func (c *APIClient) ListVideos(ctx context.Context, query string, page int) (*VideoPage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	path := "/videos"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result VideoPage
	if err := c.do(ctx, http.MethodGet, path, nil, "", &result); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return &result, nil
}

// do sends a JSON request and decodes the envelope's data into out.
func (c *APIClient) do(ctx context.Context, method, path string, body any, token string, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Details: env.Errors}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
