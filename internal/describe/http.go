package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDescriptionBytes caps the body read from a docs service
const maxDescriptionBytes = 1 << 20

// HTTPSource fetches descriptions from a documentation service:
//
//	GET {base}/descriptions?method=GET&route=/pets&in=query&pointer=/limit
//
// 200 returns the body (plain text, or JSON {"description": "..."}),
// 204 and 404 mean no description, anything else is a failure.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSource creates a source for the service at baseURL. A non-empty
// token is sent as a bearer credential.
func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Describe(ctx context.Context, target Target) (*string, error) {
	query := url.Values{}
	query.Set("method", target.Method)
	query.Set("route", target.Route)
	if target.Location != "" {
		query.Set("in", string(target.Location))
		query.Set("pointer", target.Pointer())
	}
	endpoint := fmt.Sprintf("%s/descriptions?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrUnavailable, err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Description *string `json:"description"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response: %w", ErrUnavailable, err)
		}
		if payload.Description == nil {
			return nil, nil
		}
		return textOrNil(*payload.Description), nil
	}
	return textOrNil(string(body)), nil
}
