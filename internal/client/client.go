// Package client talks to the subtitle, translation and dictionary backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// FetchTimeout bounds a subtitle fetch.
const FetchTimeout = 60 * time.Second

const (
	defaultRPS   = 10
	defaultBurst = 5
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError carries the backend's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a backend API client. Outbound requests are paced by a token bucket.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit overrides request pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New returns a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:    u,
		http:    &http.Client{},
		limiter: rate.NewLimiter(defaultRPS, defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSubtitles loads the cues for a video. It gives up after FetchTimeout.
func (c *Client) FetchSubtitles(ctx context.Context, videoID string) (SubtitleResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()
	var out SubtitleResponse
	if err := c.do(ctx, http.MethodGet, "/api/subtitles/"+url.PathEscape(videoID), nil, nil, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return SubtitleResponse{}, fmt.Errorf("subtitle request timed out after %s", FetchTimeout)
		}
		return SubtitleResponse{}, err
	}
	return out, nil
}

// TranslationProgress returns translations delivered after lastIndex.
func (c *Client) TranslationProgress(ctx context.Context, key string, lastIndex int) (TranslationProgress, error) {
	q := url.Values{"last_index": []string{strconv.Itoa(lastIndex)}}
	var out TranslationProgress
	if err := c.do(ctx, http.MethodGet, "/api/translation-progress/"+url.PathEscape(key), q, nil, &out); err != nil {
		return TranslationProgress{}, err
	}
	return out, nil
}

// LookupWord fetches dictionary information for a word or phrase.
func (c *Client) LookupWord(ctx context.Context, text string) (WordInfo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return WordInfo{}, fmt.Errorf("word is empty")
	}
	var out WordInfo
	if err := c.do(ctx, http.MethodGet, "/api/word/"+url.PathEscape(text), nil, nil, &out); err != nil {
		return WordInfo{}, err
	}
	return out, nil
}

// AddWordToBank saves a word into the nickname's bank and returns the backend message.
func (c *Client) AddWordToBank(ctx context.Context, bank, nickname, word string, info *WordInfo) (string, error) {
	if nickname == "" {
		return "", fmt.Errorf("nickname is required to save words")
	}
	body := addWordRequest{Word: word, WordInfo: info, Nickname: nickname}
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/word-banks/"+url.PathEscape(bank)+"/add-word", nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("invalid request path: %w", err)
	}
	u.Path = unescaped
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg messageResponse
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		return &APIError{Status: resp.StatusCode, Message: msg.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
