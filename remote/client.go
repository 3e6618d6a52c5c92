// Package remote provides the HTTP clients for the hosted segmentation and
// classification models.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout applies to a model request when the context has no deadline
const DefaultTimeout = 60 * time.Second

// maxResponseSize bounds the body read from a model endpoint
const maxResponseSize = 64 << 20

// ErrUpstreamModel is matched by every error a model endpoint reported
var ErrUpstreamModel = errors.New("upstream model error")

// UpstreamError is a model endpoint reply that carried an error payload or a
// non 200 status
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model endpoint %s returned status %d: %s",
		e.Endpoint, e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrUpstreamModel
func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamModel
}

// Config holds the endpoint settings of a model client
type Config struct {
	// Endpoint is the full URL requests are POSTed to
	Endpoint string
	// APIKey is sent as a bearer token
	APIKey string
	// Timeout of a request, DefaultTimeout if zero
	Timeout time.Duration
}

// imageRequest is the request body shared by both models
type imageRequest struct {
	Image string `json:"image"`
}

// client performs the JSON exchange with a model endpoint
type client struct {
	cfg  Config
	http *http.Client
}

func newClient(cfg Config, hc *http.Client) (*client, error) {

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("model endpoint is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if hc == nil {
		hc = &http.Client{}
	}

	return &client{cfg: cfg, http: hc}, nil
}

// postImage sends the image base64 encoded and decodes the JSON reply into
// out.  errMsg must return the error payload of the decoded reply, if any
func (c *client) postImage(ctx context.Context, image []byte, out any,
	errMsg func() string) error {

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(imageRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	})

	if err != nil {
		return fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)

	if err != nil {
		return fmt.Errorf("error calling %s: %w", c.cfg.Endpoint, err)
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	// error payloads are decoded on any status so the message is kept
	jsonErr := json.Unmarshal(data, out)

	if jsonErr == nil {
		if msg := errMsg(); msg != "" {
			return &UpstreamError{
				Endpoint: c.cfg.Endpoint,
				Status:   resp.StatusCode,
				Message:  msg,
			}
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{
			Endpoint: c.cfg.Endpoint,
			Status:   resp.StatusCode,
			Message:  http.StatusText(resp.StatusCode),
		}
	}

	if jsonErr != nil {
		return fmt.Errorf("error decoding response: %w", jsonErr)
	}

	return nil
}
