package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nao1215/photobrowse/internal/sidecar"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNoBaseURL is returned by NewClient without a base URL.
	ErrNoBaseURL = errors.New("api base url is empty")
)

// Limits applied to response bodies.
const (
	MaxJSONSize   = 1 << 20
	MaxAvatarSize = 5 << 20
)

// Client talks to the photo API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *retryablehttp.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets the underlying client, e.g. one routed through Tor.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http.HTTPClient = hc
	}
}

// WithRetry sets the retry count and the maximum backoff.
func WithRetry(retryMax int, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = retryMax
		c.http.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. Retries are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	// Hand the last response back after the final retry so that its status is reported.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    rc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.Logger = retryablehttp.LeveledLogger(c.logger)
	return c, nil
}

type commentsResponse struct {
	Comments []sidecar.Comment `json:"comments"`
}

type favoritesResponse struct {
	Count int `json:"count"`
}

// GetComments returns the comments of a photo, oldest first.
func (c *Client) GetComments(ctx context.Context, photoID string) ([]sidecar.Comment, error) {
	var resp commentsResponse
	if err := c.getJSON(ctx, photoPath(photoID, "comments"), &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// GetFavoritesCount returns how many users marked a photo as favorite.
func (c *Client) GetFavoritesCount(ctx context.Context, photoID string) (int, error) {
	var resp favoritesResponse
	if err := c.getJSON(ctx, photoPath(photoID, "favorites"), &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetOwner returns the account that posted a photo.
func (c *Client) GetOwner(ctx context.Context, photoID string) (sidecar.Owner, error) {
	var owner sidecar.Owner
	if err := c.getJSON(ctx, photoPath(photoID, "owner"), &owner); err != nil {
		return sidecar.Owner{}, err
	}
	return owner, nil
}

// GetOwnerAvatar downloads an avatar image. Relative URLs are resolved against the base URL.
func (c *Client) GetOwnerAvatar(ctx context.Context, avatarURL string) ([]byte, error) {
	u, err := c.resolve(avatarURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, u, "image/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readLimited(resp.Body, MaxAvatarSize)
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, c.baseURL+path, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, MaxJSONSize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedStatus, resp.Status, req.URL.Path)
	}
	c.logger.Debug("api request", "url", rawURL, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid avatar url %q: %w", ref, err)
	}
	return u.String(), nil
}

func photoPath(photoID, resource string) string {
	return "/photos/" + url.PathEscape(photoID) + "/" + resource
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return data, nil
}
