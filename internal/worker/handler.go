// Package worker drains the delivery queue: it claims each record, renders
// its email and sends it through the test-mode interceptor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/queue"
	"github.com/mudancasja/leadqueue/internal/storage"
	"github.com/mudancasja/leadqueue/internal/testmode"
)

// Store is the subset of storage.Querier the handler reads.
type Store interface {
	GetCampaign(ctx context.Context, id uuid.UUID) (storage.Campaign, error)
	GetListing(ctx context.Context, id uuid.UUID) (storage.Listing, error)
	GetLead(ctx context.Context, id uuid.UUID) (storage.Lead, error)
}

// StateMachine moves records through their delivery states.
type StateMachine interface {
	Claim(ctx context.Context, id uuid.UUID) (storage.DeliveryRecord, error)
	Complete(ctx context.Context, id uuid.UUID) (storage.DeliveryRecord, error)
	Fail(ctx context.Context, id uuid.UUID, cause error) (storage.DeliveryRecord, error)
}

// Sender dispatches a rendered email.
type Sender interface {
	Send(ctx context.Context, e testmode.Email) (*provider.DeliveryResult, error)
}

// Handler implements queue.MessageHandler for delivery record IDs.
type Handler struct {
	store   Store
	machine StateMachine
	sender  Sender
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewHandler creates a Handler. limiter may be nil to send unthrottled.
func NewHandler(store Store, machine StateMachine, sender Sender, limiter *rate.Limiter, log zerolog.Logger) *Handler {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Handler{
		store:   store,
		machine: machine,
		sender:  sender,
		limiter: limiter,
		log:     log,
	}
}

// NewLimiter builds the send limiter from worker settings. A non-positive
// rate disables throttling.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// HandleMessage claims and delivers one record. Send failures are written to
// the record and do not surface as an error; only a failure to record the
// outcome does.
func (h *Handler) HandleMessage(ctx context.Context, msg *queue.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	id := msg.DeliveryID
	log := h.log.With().Stringer("delivery_id", id).Logger()

	// Take the send slot before claiming so that a shutdown or deadline while
	// throttled leaves the record na_fila for the sweeper.
	if err := h.limiter.Wait(ctx); err != nil {
		log.Debug().Err(err).Msg("no send slot, leaving delivery queued")
		return fmt.Errorf("wait for send slot: %w", err)
	}

	rec, err := h.machine.Claim(ctx, id)
	if errors.Is(err, delivery.ErrNotClaimable) {
		log.Debug().Msg("delivery not claimable, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim delivery %s: %w", id, err)
	}

	// The outcome must be written even if the consumer is shutting down,
	// otherwise the record stays enviando.
	finishCtx := context.WithoutCancel(ctx)

	email, err := h.compose(ctx, rec)
	var result *provider.DeliveryResult
	if err == nil {
		result, err = h.sender.Send(ctx, email)
	}

	if err != nil {
		log.Warn().Err(err).
			Str("kind", string(rec.Kind)).
			Int32("attempt", rec.Attempts).
			Msg("delivery failed")
		if _, ferr := h.machine.Fail(finishCtx, id, err); ferr != nil {
			return fmt.Errorf("record failure for %s: %w", id, ferr)
		}
		return nil
	}

	if _, err := h.machine.Complete(finishCtx, id); err != nil {
		return fmt.Errorf("record success for %s: %w", id, err)
	}
	log.Info().
		Str("kind", string(rec.Kind)).
		Str("recipient", email.To).
		Str("provider_message_id", result.ProviderMessageID).
		Int32("attempt", rec.Attempts).
		Msg("delivery sent")
	return nil
}

// compose loads everything the record's email needs and renders it.
func (h *Handler) compose(ctx context.Context, rec storage.DeliveryRecord) (testmode.Email, error) {
	campaign, err := h.store.GetCampaign(ctx, rec.CampaignID)
	if err != nil {
		return testmode.Email{}, lookupError("campaign", rec.CampaignID, err)
	}
	listing, err := h.store.GetListing(ctx, campaign.ListingID)
	if err != nil {
		return testmode.Email{}, lookupError("listing", campaign.ListingID, err)
	}
	if listing.Email == "" {
		return testmode.Email{}, &apperr.ValidationError{Field: "email", Message: "listing " + listing.ID.String() + " has no contact email"}
	}

	email := testmode.Email{
		DeliveryID: &rec.ID,
		Kind:       rec.Kind,
		To:         listing.Email,
	}

	switch rec.Kind {
	case storage.EmailKindLead:
		if rec.LeadID == nil {
			return testmode.Email{}, &apperr.ValidationError{Field: "orcamento_id", Message: "lead delivery without lead"}
		}
		lead, err := h.store.GetLead(ctx, *rec.LeadID)
		if err != nil {
			return testmode.Email{}, lookupError("lead", *rec.LeadID, err)
		}
		if addr, perr := mail.ParseAddress(lead.CustomerEmail); perr == nil {
			email.ReplyTo = addr.Address
		} else if lead.CustomerEmail != "" {
			h.log.Warn().Stringer("lead_id", lead.ID).Msg("customer email unparsable, sending without reply-to")
		}
		email.Subject, email.HTML, email.Text, err = renderLead(lead, listing)
		if err != nil {
			return testmode.Email{}, err
		}
	case storage.EmailKindExpiryReminder:
		email.Subject, email.HTML, email.Text, err = renderReminder(campaign, listing)
		if err != nil {
			return testmode.Email{}, err
		}
	default:
		return testmode.Email{}, &apperr.ValidationError{Field: "tipo_email", Message: fmt.Sprintf("unknown email kind %q", rec.Kind)}
	}
	return email, nil
}

func lookupError(resource string, id uuid.UUID, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &apperr.NotFoundError{Resource: resource, ID: id.String()}
	}
	return apperr.Storage("get "+resource, err)
}

var _ queue.MessageHandler = (*Handler)(nil)
