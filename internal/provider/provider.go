// Package provider adapts outgoing notification emails to the Email Service
// Providers the platform can be configured with. Exactly one adapter is
// active at a time; it is chosen from runtime settings and built only when
// its configuration validates.
package provider

import (
	"context"
	"time"
)

// Provider defines the interface for sending email through an ESP.
type Provider interface {
	// Send delivers a message and returns the provider's receipt.
	Send(ctx context.Context, msg *Message) (*DeliveryResult, error)
	// GetName returns the provider's identifier (e.g. "sendgrid", "smtp").
	GetName() string
	// HealthCheck verifies the provider is reachable and functional.
	HealthCheck(ctx context.Context) error
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from a provider API.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Message is a rendered notification ready for transport.
type Message struct {
	// ID is the tracking code; adapters forward it as a custom header or
	// argument so bounces can be correlated with email_tracking.
	ID       string
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	// Category is the email kind (orcamento, lembrete_vencimento). ESPs
	// receive it as a tag so their dashboards can split the two flows.
	Category string
	Headers  map[string]string
	TextBody string
	HTMLBody string
}

// trackingArgs are the correlation values every adapter forwards.
func (m *Message) trackingArgs() map[string]string {
	args := map[string]string{}
	if m.ID != "" {
		args["tracking_code"] = m.ID
	}
	if m.Category != "" {
		args["email_kind"] = m.Category
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// DeliveryResult contains the outcome of a delivery attempt.
type DeliveryResult struct {
	ProviderMessageID string
	Status            DeliveryStatus
	Timestamp         time.Time
	Metadata          map[string]string
}

// DeliveryStatus represents the outcome of an ESP delivery.
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)
