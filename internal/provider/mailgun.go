package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
)

const mailgunDefaultEndpoint = "https://api.mailgun.net"

// Mailgun sends through the domain messages API with form-encoded bodies.
type Mailgun struct {
	apiKey   string
	domain   string
	endpoint string
	client   HTTPClient
}

// NewMailgun builds the adapter. EU accounts set Endpoint to
// https://api.eu.mailgun.net.
func NewMailgun(cfg ProviderConfig, client HTTPClient) *Mailgun {
	mg := &Mailgun{apiKey: cfg.APIKey, domain: cfg.Domain, endpoint: cfg.Endpoint, client: client}
	if mg.endpoint == "" {
		mg.endpoint = mailgunDefaultEndpoint
	}
	return mg
}

func (m *Mailgun) GetName() string { return TypeMailgun }

func (m *Mailgun) auth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("api:"+m.apiKey))
}

// Send posts msg to /v3/<domain>/messages. The reply carries the queued
// message ID in its JSON body.
func (m *Mailgun) Send(ctx context.Context, msg *Message) (*DeliveryResult, error) {
	resp, err := call(ctx, m.client, TypeMailgun, &HTTPRequest{
		Method: "POST",
		URL:    m.endpoint + "/v3/" + m.domain + "/messages",
		Headers: map[string]string{
			"Authorization": m.auth(),
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: []byte(m.buildForm(msg).Encode()),
	})
	if err != nil {
		return nil, err
	}

	var reply struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body, &reply)
	return accepted(reply.ID, resp, map[string]string{"message": reply.Message}), nil
}

// HealthCheck fetches the sending domain.
func (m *Mailgun) HealthCheck(ctx context.Context) error {
	return probe(ctx, m.client, TypeMailgun, &HTTPRequest{
		Method:  "GET",
		URL:     m.endpoint + "/v3/domains/" + m.domain,
		Headers: map[string]string{"Authorization": m.auth()},
	})
}

func (m *Mailgun) buildForm(msg *Message) url.Values {
	form := url.Values{
		"from":    {formatAddress(msg.FromName, msg.From)},
		"to":      {strings.Join(msg.To, ",")},
		"subject": {msg.Subject},
	}
	set := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}
	set("text", msg.TextBody)
	set("html", msg.HTMLBody)
	set("h:Reply-To", msg.ReplyTo)
	set("o:tag", msg.Category)
	for k, v := range msg.trackingArgs() {
		form.Set("v:"+k, v)
	}
	for k, v := range msg.Headers {
		form.Set("h:"+k, v)
	}
	return form
}
