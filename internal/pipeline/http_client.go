package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Make sure we conform to Client interface
var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health")
}

func (c *HTTPClient) Cancel(ctx context.Context, jobID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/jobs/%s/cancel", jobID))
}

func (c *HTTPClient) Resume(ctx context.Context, jobID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/jobs/%s/resume", jobID))
}

func (c *HTTPClient) do(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("pipeline returned status %d for %s %s", resp.StatusCode, method, path)
	}
	return nil
}
