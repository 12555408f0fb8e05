package provider

import (
	"errors"
	"net/http"
	"strings"

	"github.com/emersion/go-smtp"
)

// ProviderError is a rejection reported by an ESP. Permanent errors will
// fail again until someone fixes the recipient or the account.
type ProviderError struct {
	Provider   string
	StatusCode int // HTTP status, or SMTP reply code for relays
	Message    string
	Permanent  bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Message
}

// IsPermanent reports whether err wraps a permanent *ProviderError.
func IsPermanent(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Permanent
}

// IsTransient is the complement of IsPermanent. Errors that did not come
// from a provider reply count as transient.
func IsTransient(err error) bool {
	return !IsPermanent(err)
}

// Body fragments that turn an otherwise retryable reply into a permanent one.
var (
	badRecipientHints = []string{
		"invalid recipient", "invalid email", "invalid address",
		"does not exist", "mailbox not found", "recipient rejected",
		"bad request", "validation error",
	}
	badAccountHints = []string{
		"invalid api key", "authentication failed", "unauthorized",
		"account suspended", "account disabled",
	}
)

// ClassifyHTTPError builds a ProviderError from a non-2xx reply. It returns
// nil for 2xx.
func ClassifyHTTPError(providerName string, statusCode int, body string) *ProviderError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var permanent bool
	switch {
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusRequestTimeout:
		permanent = false
	case statusCode == http.StatusBadRequest:
		permanent = mentions(body, badRecipientHints)
	case statusCode >= 500:
		permanent = mentions(body, badAccountHints)
	default:
		// 401, 403, 404, 413, ...
		permanent = statusCode >= 400
	}

	return &ProviderError{
		Provider:   providerName,
		StatusCode: statusCode,
		Message:    body,
		Permanent:  permanent,
	}
}

func mentions(body string, hints []string) bool {
	lower := strings.ToLower(body)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// ClassifySMTPError converts an SMTP reply into a ProviderError: 5xx is
// permanent and 4xx transient. Errors without a reply code are returned as is.
func ClassifySMTPError(err error) error {
	var se *smtp.SMTPError
	if !errors.As(err, &se) {
		return err
	}
	return &ProviderError{
		Provider:   TypeSMTP,
		StatusCode: se.Code,
		Message:    se.Message,
		Permanent:  se.Code >= 500,
	}
}
