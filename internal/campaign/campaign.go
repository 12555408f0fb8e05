// Package campaign implements the administrative lifecycle of campaigns:
// creation (materializing the listing when needed), partial updates and
// hard deletes.
package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/clock"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Store is the subset of storage.Querier the service runs.
type Store interface {
	GetPlan(ctx context.Context, id uuid.UUID) (storage.Plan, error)
	GetListing(ctx context.Context, id uuid.UUID) (storage.Listing, error)
	UpdateListingCategory(ctx context.Context, id uuid.UUID, category string) error
	CreateCampaign(ctx context.Context, arg storage.CreateCampaignParams) (storage.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (storage.Campaign, error)
	UpdateCampaign(ctx context.Context, arg storage.UpdateCampaignParams) (storage.Campaign, error)
	DeleteCampaign(ctx context.Context, id uuid.UUID) (int64, error)
}

// ListingEnsurer returns a company's listing, creating it when absent.
type ListingEnsurer interface {
	EnsureListing(ctx context.Context, companyID uuid.UUID) (storage.Listing, error)
}

// CreateInput describes a new campaign. Exactly one of CompanyID and
// ListingID is required; nil optional fields take their defaults.
type CreateInput struct {
	PlanID                uuid.UUID
	CompanyID             *uuid.UUID
	ListingID             *uuid.UUID
	StartDate             *time.Time
	EndDate               *time.Time
	Active                *bool
	MonthlyValue          *float64
	ParticipatesInQuoting *bool
	MonthlyLeadCap        *int32
}

// UpdateInput is a partial update. Nil pointers leave the column alone; the
// Set flags allow clearing nullable columns.
type UpdateInput struct {
	SetEndDate            bool
	EndDate               *time.Time
	MonthlyValue          *float64
	Active                *bool
	ParticipatesInQuoting *bool
	SetMonthlyLeadCap     bool
	MonthlyLeadCap        *int32
	// Category, when set, is written to the campaign's listing.
	Category *string
}

// Service administers campaigns.
type Service struct {
	store    Store
	listings ListingEnsurer
	clock    *clock.Regional
	log      zerolog.Logger
}

// NewService creates a Service.
func NewService(store Store, listings ListingEnsurer, clk *clock.Regional, log zerolog.Logger) *Service {
	return &Service{store: store, listings: listings, clock: clk, log: log}
}

// Create inserts a campaign. New campaigns are inactive and take part in
// quoting unless told otherwise; the monthly value defaults to the plan's.
func (s *Service) Create(ctx context.Context, in CreateInput) (storage.Campaign, error) {
	if in.PlanID == uuid.Nil {
		return storage.Campaign{}, &apperr.ValidationError{Field: "planId", Message: "is required"}
	}
	if in.CompanyID == nil && in.ListingID == nil {
		return storage.Campaign{}, &apperr.ValidationError{Field: "companyId", Message: "companyId or listingId is required"}
	}

	plan, err := s.store.GetPlan(ctx, in.PlanID)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Campaign{}, &apperr.NotFoundError{Resource: "plan", ID: in.PlanID.String()}
	}
	if err != nil {
		return storage.Campaign{}, apperr.Storage("get plan", err)
	}

	listing, err := s.listingFor(ctx, in)
	if err != nil {
		return storage.Campaign{}, err
	}

	arg := storage.CreateCampaignParams{
		ListingID:             listing.ID,
		PlanID:                plan.ID,
		StartDate:             s.clock.Today(),
		EndDate:               in.EndDate,
		Active:                false,
		MonthlyValue:          plan.DefaultMonthlyValue,
		ParticipatesInQuoting: true,
		MonthlyLeadCap:        in.MonthlyLeadCap,
	}
	if in.StartDate != nil {
		arg.StartDate = clock.DateOf(*in.StartDate)
	}
	if in.Active != nil {
		arg.Active = *in.Active
	}
	if in.MonthlyValue != nil {
		arg.MonthlyValue = *in.MonthlyValue
	}
	if in.ParticipatesInQuoting != nil {
		arg.ParticipatesInQuoting = *in.ParticipatesInQuoting
	}
	if arg.EndDate != nil {
		end := clock.DateOf(*arg.EndDate)
		if end.Before(arg.StartDate) {
			return storage.Campaign{}, &apperr.ValidationError{Field: "endDate", Message: "must not be before startDate"}
		}
		arg.EndDate = &end
	}
	if err := checkAmounts(arg.MonthlyValue, arg.MonthlyLeadCap); err != nil {
		return storage.Campaign{}, err
	}

	c, err := s.store.CreateCampaign(ctx, arg)
	if err != nil {
		return storage.Campaign{}, apperr.Storage("create campaign", err)
	}
	s.log.Info().
		Stringer("campaign_id", c.ID).
		Stringer("listing_id", c.ListingID).
		Bool("active", c.Active).
		Msg("campaign created")
	return c, nil
}

func (s *Service) listingFor(ctx context.Context, in CreateInput) (storage.Listing, error) {
	if in.ListingID != nil {
		l, err := s.store.GetListing(ctx, *in.ListingID)
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Listing{}, &apperr.NotFoundError{Resource: "listing", ID: in.ListingID.String()}
		}
		if err != nil {
			return storage.Listing{}, apperr.Storage("get listing", err)
		}
		return l, nil
	}
	return s.listings.EnsureListing(ctx, *in.CompanyID)
}

// Update applies a partial update. A failing category cascade is logged and
// does not fail the update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (storage.Campaign, error) {
	if err := checkAmounts(deref(in.MonthlyValue), in.MonthlyLeadCap); err != nil {
		return storage.Campaign{}, err
	}
	arg := storage.UpdateCampaignParams{
		ID:                    id,
		SetEndDate:            in.SetEndDate,
		MonthlyValue:          in.MonthlyValue,
		Active:                in.Active,
		ParticipatesInQuoting: in.ParticipatesInQuoting,
		SetMonthlyLeadCap:     in.SetMonthlyLeadCap,
		MonthlyLeadCap:        in.MonthlyLeadCap,
	}
	if in.SetEndDate && in.EndDate != nil {
		end := clock.DateOf(*in.EndDate)
		arg.EndDate = &end
	}

	c, err := s.store.UpdateCampaign(ctx, arg)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Campaign{}, &apperr.NotFoundError{Resource: "campaign", ID: id.String()}
	}
	if err != nil {
		return storage.Campaign{}, apperr.Storage("update campaign", err)
	}

	if in.Category != nil {
		if err := s.store.UpdateListingCategory(ctx, c.ListingID, *in.Category); err != nil {
			s.log.Warn().Err(err).
				Stringer("campaign_id", id).
				Stringer("listing_id", c.ListingID).
				Msg("listing category cascade failed")
		}
	}

	s.log.Info().Stringer("campaign_id", id).Msg("campaign updated")
	return c, nil
}

// Delete removes the campaign; its delivery records go with it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.store.DeleteCampaign(ctx, id)
	if err != nil {
		return apperr.Storage("delete campaign", err)
	}
	if n == 0 {
		return &apperr.NotFoundError{Resource: "campaign", ID: id.String()}
	}
	s.log.Info().Stringer("campaign_id", id).Msg("campaign deleted")
	return nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (storage.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Campaign{}, &apperr.NotFoundError{Resource: "campaign", ID: id.String()}
	}
	if err != nil {
		return storage.Campaign{}, apperr.Storage("get campaign", err)
	}
	return c, nil
}

func checkAmounts(value float64, leadCap *int32) error {
	if value < 0 {
		return &apperr.ValidationError{Field: "monthlyValue", Message: "must not be negative"}
	}
	if leadCap != nil && *leadCap < 0 {
		return &apperr.ValidationError{Field: "monthlyLeadCap", Message: "must not be negative"}
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
