package advisory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// adviceRequest is the body for all transcript-bearing endpoints
type adviceRequest struct {
	Transcript string `json:"transcript"`
}

// adviceResponse is the advisory endpoint response
type adviceResponse struct {
	Advice string `json:"advice"`
}

// scoreResponse is the satisfaction-score endpoint response
type scoreResponse struct {
	Score float64 `json:"score"`
}

// uploadResponse is the PDF-upload endpoint response
type uploadResponse struct {
	Status string `json:"status"`
}

// Client talks to the advisory HTTP API. Advice is the polled core
// call and is never retried; the ancillary calls (score, summary, PDF
// upload) are opaque request/response operations with a small retry.
type Client struct {
	advice    *resty.Client
	ancillary *resty.Client
}

// NewClient creates an advisory API client for the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		advice: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		ancillary: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
	}
}

// Advice sends the transcript snapshot and returns the advisory text
func (c *Client) Advice(ctx context.Context, transcript string) (string, error) {
	var out adviceResponse
	resp, err := c.advice.R().
		SetContext(ctx).
		SetBody(adviceRequest{Transcript: transcript}).
		SetResult(&out).
		Post("/api/advice")
	if err != nil {
		return "", fmt.Errorf("advice request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("advice request failed with status %d", resp.StatusCode())
	}
	return out.Advice, nil
}

// SatisfactionScore returns the satisfaction score for a transcript
func (c *Client) SatisfactionScore(ctx context.Context, transcript string) (float64, error) {
	var out scoreResponse
	resp, err := c.ancillary.R().
		SetContext(ctx).
		SetBody(adviceRequest{Transcript: transcript}).
		SetResult(&out).
		Post("/api/satisfaction-score")
	if err != nil {
		return 0, fmt.Errorf("satisfaction score request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("satisfaction score request failed with status %d", resp.StatusCode())
	}
	return out.Score, nil
}

// Summary returns the CSV summary payload for a transcript
func (c *Client) Summary(ctx context.Context, transcript string) ([]byte, error) {
	resp, err := c.ancillary.R().
		SetContext(ctx).
		SetBody(adviceRequest{Transcript: transcript}).
		Post("/api/summary")
	if err != nil {
		return nil, fmt.Errorf("summary request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("summary request failed with status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// UploadPDF uploads a PDF for server-side indexing and returns the
// reported status
func (c *Client) UploadPDF(ctx context.Context, path string) (string, error) {
	var out uploadResponse
	resp, err := c.ancillary.R().
		SetContext(ctx).
		SetFile("file", path).
		SetResult(&out).
		Post("/api/upload-pdf")
	if err != nil {
		return "", fmt.Errorf("pdf upload failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("pdf upload failed with status %d", resp.StatusCode())
	}
	return out.Status, nil
}

// Ping probes the advisory base URL for the readiness endpoint
func (c *Client) Ping(ctx context.Context) (bool, error) {
	// Any HTTP response means the endpoint is reachable
	if _, err := c.ancillary.R().SetContext(ctx).Get("/"); err != nil {
		return false, err
	}
	return true, nil
}
