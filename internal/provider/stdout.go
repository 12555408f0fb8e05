package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stdout prints a summary of each message instead of sending it. It is the
// development default and the fallback when the configured provider does
// not validate.
type Stdout struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewStdout creates a Stdout provider writing to os.Stdout.
func NewStdout(_ ProviderConfig) *Stdout {
	return &Stdout{writer: os.Stdout}
}

func (s *Stdout) GetName() string { return TypeStdout }

// Send writes one block per message. Concurrent sends do not interleave.
func (s *Stdout) Send(_ context.Context, msg *Message) (*DeliveryResult, error) {
	var b strings.Builder
	kind := msg.Category
	if kind == "" {
		kind = "email"
	}
	fmt.Fprintf(&b, "[stdout] %s %s\n", kind, msg.ID)
	fmt.Fprintf(&b, "  from:     %s\n", formatAddress(msg.FromName, msg.From))
	fmt.Fprintf(&b, "  to:       %s\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "  reply-to: %s\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "  subject:  %s\n", msg.Subject)

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  header:   %s: %s\n", k, msg.Headers[k])
	}
	fmt.Fprintf(&b, "  parts:    text=%dB html=%dB\n", len(msg.TextBody), len(msg.HTMLBody))

	s.mu.Lock()
	_, err := io.WriteString(s.writer, b.String())
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}

	return &DeliveryResult{
		ProviderMessageID: "stdout-" + msg.ID,
		Status:            StatusSent,
		Timestamp:         time.Now(),
	}, nil
}

// HealthCheck always succeeds.
func (s *Stdout) HealthCheck(_ context.Context) error { return nil }
