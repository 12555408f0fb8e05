package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Querier is the full set of statements the application runs against
// Postgres. Handlers and services depend on narrower interfaces carved
// out of it so tests can stub only what they touch.
type Querier interface {
	// Locations and companies.
	ResolveCity(ctx context.Context, name, state string) (City, error)
	GetCity(ctx context.Context, id uuid.UUID) (City, error)
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	GetCompany(ctx context.Context, id uuid.UUID) (Company, error)

	// Listings.
	GetListing(ctx context.Context, id uuid.UUID) (Listing, error)
	GetListingByCompany(ctx context.Context, companyID uuid.UUID) (Listing, error)
	InsertListingIfAbsent(ctx context.Context, arg InsertListingParams) (Listing, error)
	UpdateListingCategory(ctx context.Context, id uuid.UUID, category string) error

	// Campaigns.
	CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error)
	UpdateCampaign(ctx context.Context, arg UpdateCampaignParams) (Campaign, error)
	DeleteCampaign(ctx context.Context, id uuid.UUID) (int64, error)
	ListEligibleCampaigns(ctx context.Context, arg ListEligibleCampaignsParams) ([]EligibleCampaign, error)
	ListCampaignsEndingBetween(ctx context.Context, from, to time.Time) ([]Campaign, error)

	// Leads.
	CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)

	// Delivery records.
	InsertLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (DeliveryRecord, error)
	GetLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (DeliveryRecord, error)
	InsertReminderDelivery(ctx context.Context, campaignID uuid.UUID, cycle time.Time) (DeliveryRecord, error)
	GetDelivery(ctx context.Context, id uuid.UUID) (DeliveryRecord, error)
	ListDeliveriesByLead(ctx context.Context, leadID uuid.UUID) ([]DeliveryRecord, error)
	ClaimDelivery(ctx context.Context, id uuid.UUID, at time.Time) (DeliveryRecord, error)
	CompleteDelivery(ctx context.Context, id uuid.UUID) (DeliveryRecord, error)
	FailDelivery(ctx context.Context, id uuid.UUID, lastError string) (DeliveryRecord, error)
	RequeueDelivery(ctx context.Context, id, leadID uuid.UUID) (DeliveryRecord, error)
	RequeueLeadDeliveries(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)
	TouchStaleQueuedDeliveries(ctx context.Context, queuedBefore time.Time, limit int32) ([]uuid.UUID, error)

	// Email tracking.
	CreateEmailTracking(ctx context.Context, arg CreateEmailTrackingParams) (EmailTrackingEntry, error)
	ListEmailTrackingByProvider(ctx context.Context, provider string, limit int32) ([]EmailTrackingEntry, error)
	ListEmailTrackingByMetadataFlag(ctx context.Context, key string, limit int32) ([]EmailTrackingEntry, error)

	// Runtime settings.
	ListSettings(ctx context.Context) ([]Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (Setting, error)
}
