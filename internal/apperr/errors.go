// Package apperr defines the error taxonomy shared by the matching, delivery
// and administration layers, and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports a missing or malformed field supplied by a caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a duplicate unique key.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return e.Resource + " already exists"
	}
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Detail)
}

// ResolutionError reports a location lookup that could not be resolved.
type ResolutionError struct {
	Query string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve location %q", e.Query)
}

// UpstreamDeliveryError wraps a provider failure. It is recorded on the
// delivery record and never returned to HTTP callers.
type UpstreamDeliveryError struct {
	Provider  string
	Permanent bool
	Err       error
}

func (e *UpstreamDeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamDeliveryError) Unwrap() error { return e.Err }

// StorageError wraps a durable-store failure together with the operation
// that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NothingToRequeueError is returned by bulk requeue when a lead has no
// delivery records in a terminal state.
type NothingToRequeueError struct {
	LeadID string
}

func (e *NothingToRequeueError) Error() string {
	return fmt.Sprintf("no sent or failed deliveries to requeue for lead %s", e.LeadID)
}

// Storage classifies a database error. Unique violations become a
// ConflictError, foreign key violations a NotFoundError, anything else a
// StorageError tagged with op.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &ConflictError{Resource: pgErr.TableName, Detail: pgErr.ConstraintName}
		case "23503":
			return &NotFoundError{Resource: "referenced row", ID: pgErr.ConstraintName}
		}
	}
	return &StorageError{Op: op, Err: err}
}

// HTTPStatus maps err onto the status code surfaced by the API.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		resolution *ResolutionError
		nothing    *NothingToRequeueError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &resolution), errors.As(err, &nothing):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
