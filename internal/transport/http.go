// Package transport performs the physical HTTP attempts beneath the request
// pipeline. One Send is one attempt; classification and retries live above.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

const userAgent = "Ares/1.0 (Fortuna fight odds)"

// HTTPTransport sends requests over HTTP with a per-call timeout. A shared
// pacer spaces physical sends so connectors retrying in parallel cannot
// burst a vendor host.
type HTTPTransport struct {
	client *http.Client
	pacer  *rate.Limiter
}

var _ contracts.Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport. minInterval is the minimum spacing
// between physical sends; zero disables pacing.
func NewHTTPTransport(timeout, minInterval time.Duration) *HTTPTransport {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		pacer:  rate.NewLimiter(limit, 1),
	}
}

// Send performs exactly one HTTP attempt. Non-200 responses come back as a
// *models.HTTPError carrying the status and response body.
func (t *HTTPTransport) Send(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error) {
	if err := t.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	for key, value := range req.Header {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	header := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		header[key] = resp.Header.Get(key)
	}

	return &models.SourceResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     header,
	}, nil
}
