// Package innertube contains a minimal client for the undocumented
// InnerTube live chat polling protocol: fetching the watch page that
// bootstraps a session, and posting continuation requests for the next
// batch of chat actions.
package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	defaultWatchBase = "https://www.youtube.com"
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ErrForbidden marks an access-forbidden response from the platform.
// It is fatal to an active session and must never be retried.
var ErrForbidden = errors.New("innertube: access forbidden")

// Target identifies the stream whose chat should be polled. Exactly one
// field is used; precedence is Handle > ChannelID > LiveID.
type Target struct {
	Handle    string
	ChannelID string
	LiveID    string
}

// PageContext is the immutable part of a chat session extracted from
// the watch page. The continuation token is deliberately not part of
// it; the polling loop owns that.
type PageContext struct {
	LiveID        string
	APIKey        string
	ClientVersion string
}

// Client performs the two protocol operations. The zero value is usable;
// BaseURL and HTTPClient exist so tests can point it at a mock server.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultWatchBase
}

// FetchWatchPage downloads the HTML page that seeds a chat session.
// It fails when no identifier is supplied.
func (c *Client) FetchWatchPage(ctx context.Context, target Target) (string, error) {
	var url string
	switch {
	case target.Handle != "":
		url = c.base() + "/@" + target.Handle + "/live"
	case target.ChannelID != "":
		url = c.base() + "/channel/" + target.ChannelID + "/live"
	case target.LiveID != "":
		url = c.base() + "/watch?v=" + target.LiveID
	default:
		return "", fmt.Errorf("innertube: no handle, channel id, or live id supplied")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("watch page %s: %w", url, ErrForbidden)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("watch page %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read watch page: %w", err)
	}
	return string(body), nil
}

// continuationRequest is the POST body of a live chat poll.
type continuationRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	Continuation string `json:"continuation"`
}

// FetchContinuation posts a continuation request and returns the parsed
// payload plus the raw response bytes. A nil payload with non-nil raw
// bytes signals a handled decode failure (retryable); both nil signals
// a harder transport failure. HTTP 403 maps to ErrForbidden.
func (c *Client) FetchContinuation(ctx context.Context, page PageContext, token string) (*ChatResponse, []byte, error) {
	var body continuationRequest
	body.Context.Client.ClientName = "WEB"
	body.Context.Client.ClientVersion = page.ClientVersion
	body.Continuation = token
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("encode continuation request: %w", err)
	}

	url := c.base() + "/youtubei/v1/live_chat/get_live_chat?key=" + page.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read continuation response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, raw, fmt.Errorf("continuation fetch: %w", ErrForbidden)
	case resp.StatusCode != http.StatusOK:
		return nil, raw, fmt.Errorf("continuation fetch: unexpected status %d", resp.StatusCode)
	}
	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, raw, fmt.Errorf("decode continuation response: %w", err)
	}
	return &parsed, raw, nil
}
