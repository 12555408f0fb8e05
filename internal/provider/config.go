package provider

import (
	"errors"
	"fmt"
	"time"
)

const (
	TypeSendGrid = "sendgrid"
	TypeMailgun  = "mailgun"
	TypeSMTP     = "smtp"
	TypeStdout   = "stdout"
	TypeFile     = "file"
)

const defaultTimeout = 30 * time.Second

// ProviderConfig is the provider section of the settings snapshot. It is
// comparable, so the resolver uses it directly as a cache key.
type ProviderConfig struct {
	Type     string
	APIKey   string
	Endpoint string // API base URL override; output directory for "file"
	Timeout  time.Duration
	Domain   string // mailgun

	SMTPHost string
	SMTPPort int
	Username string
	Password string
	StartTLS bool
}

// Validate reports every missing credential for the configured type at
// once, and fills in the default timeout.
func (c *ProviderConfig) Validate() error {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	var problems []error
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, fmt.Errorf("%s: %s", c.Type, msg))
		}
	}

	switch c.Type {
	case "":
		return errors.New("provider type is required")
	case TypeSendGrid:
		require(c.APIKey != "", "api_key is required")
	case TypeMailgun:
		require(c.APIKey != "", "api_key is required")
		require(c.Domain != "", "domain is required")
	case TypeSMTP:
		require(c.SMTPHost != "", "host is required")
		require(c.SMTPPort > 0 && c.SMTPPort <= 65535, fmt.Sprintf("invalid port %d", c.SMTPPort))
		require(c.Username == "" || c.Password != "", "password is required when username is set")
	case TypeStdout, TypeFile:
	default:
		return fmt.Errorf("unknown provider type: %s", c.Type)
	}
	return errors.Join(problems...)
}
