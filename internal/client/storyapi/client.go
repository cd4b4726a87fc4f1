package storyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"storyfeed/internal/domain"
)

// Config holds story API client configuration.
type Config struct {
	BaseURL        string
	Resource       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client talks to the remote story CRUD service.
type Client struct {
	httpClient     *http.Client
	endpoint       string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new story API client.
func New(cfg Config, logger *slog.Logger) *Client {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:       strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.Resource, "/"),
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("client", "storyapi"),
	}
}

// List returns every story in backend order.
func (c *Client) List(ctx context.Context) ([]domain.Story, error) {
	var stories []domain.Story

	err := c.retry(ctx, "list", func() error {
		stories = nil
		return c.do(ctx, http.MethodGet, c.endpoint, nil, &stories)
	})
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	if stories == nil {
		stories = []domain.Story{}
	}

	c.logger.Debug("listed stories", "count", len(stories))
	return stories, nil
}

// Get returns a single story. A missing story yields domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*domain.Story, error) {
	var story domain.Story

	err := c.retry(ctx, "get", func() error {
		err := c.do(ctx, http.MethodGet, c.storyURL(id), nil, &story)
		if domain.IsNotFound(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}

	return &story, nil
}

func (c *Client) Create(ctx context.Context, draft domain.Draft) (*domain.Story, error) {
	var story domain.Story
	if err := c.do(ctx, http.MethodPost, c.endpoint, draft, &story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	c.logger.Info("created story", "id", story.ID)
	return &story, nil
}

func (c *Client) Update(ctx context.Context, id string, draft domain.Draft) (*domain.Story, error) {
	var story domain.Story
	if err := c.do(ctx, http.MethodPut, c.storyURL(id), draft, &story); err != nil {
		return nil, fmt.Errorf("update story %s: %w", id, err)
	}

	c.logger.Info("updated story", "id", id)
	return &story, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.storyURL(id), nil, nil); err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}

	c.logger.Info("deleted story", "id", id)
	return nil
}

func (c *Client) storyURL(id string) string {
	return c.endpoint + "/" + url.PathEscape(id)
}

// retry runs fn with exponential backoff. Only reads go through here.
func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	if c.maxAttempts == 1 {
		return fn()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = c.maxBackoff
	bo.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)

	notify := func(err error, next time.Duration) {
		c.logger.Warn("request failed, retrying",
			"operation", op,
			"backoff", next,
			"error", err,
		)
	}

	return backoff.RetryNotify(fn, policy, notify)
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "StoryFeed/1.0")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, target, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d: %w", resp.StatusCode, domain.ErrNetwork)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrNetwork, err)
	}

	return nil
}
