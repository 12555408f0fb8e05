// Package matcher fans a lead out to every campaign that should receive it
// and keeps the per-company listing materialized.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/clock"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Store is the subset of storage.Querier the matcher runs.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID) (storage.Lead, error)
	ListEligibleCampaigns(ctx context.Context, arg storage.ListEligibleCampaignsParams) ([]storage.EligibleCampaign, error)
	InsertLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (storage.DeliveryRecord, error)
	GetLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (storage.DeliveryRecord, error)

	GetCompany(ctx context.Context, id uuid.UUID) (storage.Company, error)
	GetCity(ctx context.Context, id uuid.UUID) (storage.City, error)
	GetListingByCompany(ctx context.Context, companyID uuid.UUID) (storage.Listing, error)
	InsertListingIfAbsent(ctx context.Context, arg storage.InsertListingParams) (storage.Listing, error)
}

// CityResolver maps free text onto a canonical city.
type CityResolver interface {
	Resolve(ctx context.Context, name, state string) (storage.City, error)
}

// Failure records a campaign whose delivery record could not be written.
type Failure struct {
	CampaignID uuid.UUID `json:"campaignId"`
	Error      string    `json:"error"`
}

// Result summarizes one Match call.
type Result struct {
	LeadID      uuid.UUID   `json:"leadId"`
	Notified    int         `json:"notified"`
	CampaignIDs []uuid.UUID `json:"campaignIds"`
	DeliveryIDs []uuid.UUID `json:"deliveryIds"`
	Failures    []Failure   `json:"failures,omitempty"`
}

// Matcher creates delivery records for leads.
type Matcher struct {
	store    Store
	cities   CityResolver
	dispatch delivery.Service
	clock    *clock.Regional
	log      zerolog.Logger
}

// New creates a Matcher. dispatch may be nil, in which case records stay in
// na_fila until the worker sweep publishes them.
func New(store Store, cities CityResolver, dispatch delivery.Service, clk *clock.Regional, log zerolog.Logger) *Matcher {
	return &Matcher{
		store:    store,
		cities:   cities,
		dispatch: dispatch,
		clock:    clk,
		log:      log,
	}
}

// Match creates one na_fila delivery record per eligible campaign of the
// lead's destination city. Running it twice for the same lead reuses the
// records of the first run. A failure on one campaign does not stop the
// others; it is reported in Result.Failures.
func (m *Matcher) Match(ctx context.Context, leadID uuid.UUID) (*Result, error) {
	lead, err := m.store.GetLead(ctx, leadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "lead", ID: leadID.String()}
	}
	if err != nil {
		return nil, apperr.Storage("get lead", err)
	}

	dest, err := m.cities.Resolve(ctx, lead.DestinationCity, lead.DestinationState)
	if err != nil {
		m.logUnresolved(err, "lead_id", leadID)
		return nil, err
	}

	today := m.clock.Today()
	candidates, err := m.store.ListEligibleCampaigns(ctx, storage.ListEligibleCampaignsParams{
		City:  dest.Name,
		State: dest.State,
		Today: today,
	})
	if err != nil {
		return nil, apperr.Storage("list eligible campaigns", err)
	}

	log := m.log.With().Stringer("lead_id", leadID).Logger()
	res := &Result{
		LeadID:      leadID,
		CampaignIDs: []uuid.UUID{},
		DeliveryIDs: []uuid.UUID{},
	}
	var created []uuid.UUID

	for _, ec := range candidates {
		if !Eligible(ec.Campaign, ec.Listing, dest, today) {
			continue
		}
		rec, isNew, err := m.recordFor(ctx, leadID, ec.Campaign.ID)
		if err != nil {
			log.Error().Err(err).
				Stringer("campaign_id", ec.Campaign.ID).
				Msg("failed to create delivery record")
			res.Failures = append(res.Failures, Failure{CampaignID: ec.Campaign.ID, Error: err.Error()})
			continue
		}
		res.CampaignIDs = append(res.CampaignIDs, ec.Campaign.ID)
		res.DeliveryIDs = append(res.DeliveryIDs, rec.ID)
		if isNew {
			created = append(created, rec.ID)
		}
	}
	res.Notified = len(res.DeliveryIDs)

	metrics.LeadsMatchedTotal.Inc()
	metrics.CampaignsPerLead.Observe(float64(res.Notified))

	if len(created) > 0 && m.dispatch != nil {
		if err := m.dispatch.Dispatch(ctx, created...); err != nil {
			log.Warn().Err(err).Msg("dispatch incomplete")
		}
	}

	log.Info().
		Str("destination", dest.Name+"/"+dest.State).
		Int("notified", res.Notified).
		Int("created", len(created)).
		Int("failures", len(res.Failures)).
		Msg("lead matched")
	return res, nil
}

// recordFor inserts the lead/campaign record, or returns the one a previous
// run already wrote.
func (m *Matcher) recordFor(ctx context.Context, leadID, campaignID uuid.UUID) (storage.DeliveryRecord, bool, error) {
	rec, err := m.store.InsertLeadDelivery(ctx, leadID, campaignID)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storage.DeliveryRecord{}, false, apperr.Storage("insert lead delivery", err)
	}
	rec, err = m.store.GetLeadDelivery(ctx, leadID, campaignID)
	if err != nil {
		return storage.DeliveryRecord{}, false, apperr.Storage("get lead delivery", err)
	}
	return rec, false, nil
}

// Eligible reports whether campaign c of listing should receive leads bound
// for dest on the given regional date. today must be a date as produced by
// clock.Regional.Today.
func Eligible(c storage.Campaign, listing storage.Listing, dest storage.City, today time.Time) bool {
	if !c.Active || !c.ParticipatesInQuoting {
		return false
	}
	if c.EndDate != nil && clock.DateOf(*c.EndDate).Before(today) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(listing.City), dest.Name) &&
		strings.EqualFold(strings.TrimSpace(listing.State), dest.State)
}

// EnsureListing returns the company's listing, creating it from the company
// record when none exists. Concurrent callers converge on the same row.
func (m *Matcher) EnsureListing(ctx context.Context, companyID uuid.UUID) (storage.Listing, error) {
	company, err := m.store.GetCompany(ctx, companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Listing{}, &apperr.NotFoundError{Resource: "company", ID: companyID.String()}
	}
	if err != nil {
		return storage.Listing{}, apperr.Storage("get company", err)
	}

	if company.CityID == nil {
		err := &apperr.ResolutionError{Query: "company " + companyID.String()}
		m.logUnresolved(err, "company_id", companyID)
		return storage.Listing{}, err
	}
	city, err := m.store.GetCity(ctx, *company.CityID)
	if errors.Is(err, pgx.ErrNoRows) {
		err := &apperr.ResolutionError{Query: "city " + company.CityID.String()}
		m.logUnresolved(err, "company_id", companyID)
		return storage.Listing{}, err
	}
	if err != nil {
		return storage.Listing{}, apperr.Storage("get city", err)
	}

	listing, err := m.store.InsertListingIfAbsent(ctx, storage.InsertListingParams{
		CompanyID:   company.ID,
		DisplayName: company.Name,
		Description: DefaultDescription(company.Name, city),
		Address:     company.Address,
		City:        city.Name,
		State:       city.State,
		Phone1:      company.Phone1,
		Phone2:      company.Phone2,
		Email:       company.Email,
	})
	if err == nil {
		m.log.Info().
			Stringer("company_id", companyID).
			Stringer("listing_id", listing.ID).
			Msg("listing created")
		return listing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storage.Listing{}, apperr.Storage("insert listing", err)
	}

	listing, err = m.store.GetListingByCompany(ctx, companyID)
	if err != nil {
		return storage.Listing{}, apperr.Storage("get listing by company", err)
	}
	return listing, nil
}

// DefaultDescription is the blurb a freshly materialized listing carries.
func DefaultDescription(companyName string, city storage.City) string {
	return fmt.Sprintf("%s - mudanças em %s/%s", companyName, city.Name, city.State)
}

// logUnresolved keeps a record of locations that did not resolve so they can
// be fixed in the cidades table.
func (m *Matcher) logUnresolved(err error, key string, id uuid.UUID) {
	var re *apperr.ResolutionError
	if errors.As(err, &re) {
		m.log.Warn().Str("query", re.Query).Str(key, id.String()).Msg("location unresolved")
	}
}
