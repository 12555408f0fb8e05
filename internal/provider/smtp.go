package provider

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// smtpClient is the subset of *smtp.Client the relay adapter uses.
type smtpClient interface {
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Noop() error
	Quit() error
	Close() error
}

type smtpDialer func(addr string, startTLS bool) (smtpClient, error)

func dialSMTP(addr string, startTLS bool) (smtpClient, error) {
	if startTLS {
		return smtp.DialStartTLS(addr, nil)
	}
	return smtp.Dial(addr)
}

// SMTP relays messages through an upstream SMTP server.
type SMTP struct {
	addr     string
	username string
	password string
	startTLS bool
	dial     smtpDialer
}

// NewSMTP creates an SMTP relay provider from the given configuration.
func NewSMTP(cfg ProviderConfig) *SMTP {
	return &SMTP{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		username: cfg.Username,
		password: cfg.Password,
		startTLS: cfg.StartTLS,
		dial:     dialSMTP,
	}
}

func (s *SMTP) GetName() string { return TypeSMTP }

// Send opens a session, authenticates when credentials are set, and submits
// the message as multipart/alternative.
func (s *SMTP) Send(ctx context.Context, msg *Message) (*DeliveryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, messageID, err := buildMIME(msg)
	if err != nil {
		return nil, fmt.Errorf("smtp: build message: %w", err)
	}

	c, err := s.dial(s.addr, s.startTLS)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", s.addr, err)
	}
	defer c.Close()

	if s.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return nil, ClassifySMTPError(err)
		}
	}

	if err := c.SendMail(msg.From, msg.To, bytes.NewReader(raw)); err != nil {
		return nil, ClassifySMTPError(err)
	}
	_ = c.Quit()

	return &DeliveryResult{
		ProviderMessageID: messageID,
		Status:            StatusSent,
		Timestamp:         time.Now(),
		Metadata:          map[string]string{"relay": s.addr},
	}, nil
}

// HealthCheck dials the relay and issues a NOOP.
func (s *SMTP) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := s.dial(s.addr, s.startTLS)
	if err != nil {
		return fmt.Errorf("smtp: health check dial: %w", err)
	}
	defer c.Close()

	if err := c.Noop(); err != nil {
		return fmt.Errorf("smtp: health check noop: %w", err)
	}
	return c.Quit()
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}

// buildMIME renders msg as an RFC 5322 message with a text/html alternative.
// It returns the raw bytes and the Message-ID it generated.
func buildMIME(msg *Message) ([]byte, string, error) {
	var buf bytes.Buffer

	domain := "localhost"
	if at := strings.LastIndex(msg.From, "@"); at >= 0 {
		domain = msg.From[at+1:]
	}
	messageID := fmt.Sprintf("<%s@%s>", randomToken(), domain)

	headers := map[string]string{
		"From":         formatAddress(msg.FromName, msg.From),
		"To":           strings.Join(msg.To, ", "),
		"Subject":      mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date":         time.Now().Format(time.RFC1123Z),
		"Message-ID":   messageID,
		"MIME-Version": "1.0",
	}
	if msg.ReplyTo != "" {
		if addr, err := mail.ParseAddress(msg.ReplyTo); err == nil {
			headers["Reply-To"] = addr.String()
		}
	}
	if msg.ID != "" {
		headers["X-Tracking-Code"] = msg.ID
	}
	for k, v := range msg.Headers {
		headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}

	mw := multipart.NewWriter(&buf)
	headers["Content-Type"] = "multipart/alternative; boundary=" + mw.Boundary()

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var head bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&head, "%s: %s\r\n", stripLineBreaks(k), stripLineBreaks(headers[k]))
	}
	head.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.TextBody},
		{"text/html; charset=utf-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.contentType)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, "", err
		}
		if err := qp.Close(); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return append(head.Bytes(), buf.Bytes()...), messageID, nil
}

// stripLineBreaks keeps a header value on one line.
func stripLineBreaks(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return v
	}
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}

func randomToken() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
