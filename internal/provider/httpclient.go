package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultHTTPClient executes provider API calls over net/http.
type DefaultHTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a DefaultHTTPClient whose calls give up after timeout.
func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{client: &http.Client{Timeout: timeout}}
}

// Do runs req and reads the whole reply body.
func (c *DefaultHTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	out := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       body,
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	return out, nil
}

// call runs an ESP API request. Transport failures are wrapped with the
// provider name; non-2xx replies come back classified as *ProviderError.
func call(ctx context.Context, client HTTPClient, name string, req *HTTPRequest) (*HTTPResponse, error) {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ClassifyHTTPError(name, resp.StatusCode, string(resp.Body))
	}
	return resp, nil
}

// probe is call for health checks, where only a 200 counts as healthy.
func probe(ctx context.Context, client HTTPClient, name string, req *HTTPRequest) error {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: health check request: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: health check returned status %d", name, resp.StatusCode)
	}
	return nil
}

// accepted builds the receipt for a successful API send.
func accepted(messageID string, resp *HTTPResponse, extra map[string]string) *DeliveryResult {
	meta := map[string]string{"status_code": strconv.Itoa(resp.StatusCode)}
	for k, v := range extra {
		meta[k] = v
	}
	return &DeliveryResult{
		ProviderMessageID: messageID,
		Status:            StatusSent,
		Timestamp:         time.Now(),
		Metadata:          meta,
	}
}
