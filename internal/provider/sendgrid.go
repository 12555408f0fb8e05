package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	sendgridDefaultEndpoint = "https://api.sendgrid.com"
	sendgridSendPath        = "/v3/mail/send"
	sendgridScopesPath      = "/v3/scopes"
)

// SendGrid sends through the v3 Mail Send API.
type SendGrid struct {
	apiKey   string
	endpoint string
	client   HTTPClient
}

// NewSendGrid builds the adapter; an empty Endpoint means the public API.
func NewSendGrid(cfg ProviderConfig, client HTTPClient) *SendGrid {
	sg := &SendGrid{apiKey: cfg.APIKey, endpoint: cfg.Endpoint, client: client}
	if sg.endpoint == "" {
		sg.endpoint = sendgridDefaultEndpoint
	}
	return sg
}

func (s *SendGrid) GetName() string { return TypeSendGrid }

func (s *SendGrid) auth() string { return "Bearer " + s.apiKey }

// Send posts msg to mail/send. SendGrid answers 202 with the message ID in
// the X-Message-Id header.
func (s *SendGrid) Send(ctx context.Context, msg *Message) (*DeliveryResult, error) {
	body, err := json.Marshal(s.buildPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("sendgrid: marshal request: %w", err)
	}

	resp, err := call(ctx, s.client, TypeSendGrid, &HTTPRequest{
		Method:  "POST",
		URL:     s.endpoint + sendgridSendPath,
		Headers: map[string]string{"Authorization": s.auth(), "Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	return accepted(resp.Headers["X-Message-Id"], resp, nil), nil
}

// HealthCheck lists the key's scopes, which fails fast on a revoked key.
func (s *SendGrid) HealthCheck(ctx context.Context) error {
	return probe(ctx, s.client, TypeSendGrid, &HTTPRequest{
		Method:  "GET",
		URL:     s.endpoint + sendgridScopesPath,
		Headers: map[string]string{"Authorization": s.auth()},
	})
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From       sendgridAddress   `json:"from"`
	ReplyTo    *sendgridAddress  `json:"reply_to,omitempty"`
	Subject    string            `json:"subject"`
	Content    []sendgridPart    `json:"content"`
	Headers    map[string]string `json:"headers,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

func (s *SendGrid) buildPayload(msg *Message) sendgridPayload {
	var p sendgridPayload
	p.Personalizations = make([]struct {
		To []sendgridAddress `json:"to"`
	}, 1)
	for _, addr := range msg.To {
		p.Personalizations[0].To = append(p.Personalizations[0].To, sendgridAddress{Email: addr})
	}
	p.From = sendgridAddress{Email: msg.From, Name: msg.FromName}
	p.Subject = msg.Subject
	p.Headers = msg.Headers

	// text/plain must come before text/html.
	if msg.TextBody != "" {
		p.Content = append(p.Content, sendgridPart{"text/plain", msg.TextBody})
	}
	if msg.HTMLBody != "" {
		p.Content = append(p.Content, sendgridPart{"text/html", msg.HTMLBody})
	}
	if msg.ReplyTo != "" {
		p.ReplyTo = &sendgridAddress{Email: msg.ReplyTo}
	}
	if msg.Category != "" {
		p.Categories = []string{msg.Category}
	}
	p.CustomArgs = msg.trackingArgs()
	return p
}
