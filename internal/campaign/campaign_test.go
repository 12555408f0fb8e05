package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/clock"
	"github.com/mudancasja/leadqueue/internal/storage"
)

func ptr[T any](v T) *T { return &v }

type fakeStore struct {
	plans       map[uuid.UUID]storage.Plan
	listings    map[uuid.UUID]storage.Listing
	campaigns   map[uuid.UUID]storage.Campaign
	created     storage.CreateCampaignParams
	categoryErr error
	categories  map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:      map[uuid.UUID]storage.Plan{},
		listings:   map[uuid.UUID]storage.Listing{},
		campaigns:  map[uuid.UUID]storage.Campaign{},
		categories: map[uuid.UUID]string{},
	}
}

func (f *fakeStore) GetPlan(_ context.Context, id uuid.UUID) (storage.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return storage.Plan{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) GetListing(_ context.Context, id uuid.UUID) (storage.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return storage.Listing{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) UpdateListingCategory(_ context.Context, id uuid.UUID, category string) error {
	if f.categoryErr != nil {
		return f.categoryErr
	}
	f.categories[id] = category
	return nil
}

func (f *fakeStore) CreateCampaign(_ context.Context, arg storage.CreateCampaignParams) (storage.Campaign, error) {
	f.created = arg
	c := storage.Campaign{
		ID:                    uuid.New(),
		ListingID:             arg.ListingID,
		PlanID:                arg.PlanID,
		StartDate:             arg.StartDate,
		EndDate:               arg.EndDate,
		Active:                arg.Active,
		MonthlyValue:          arg.MonthlyValue,
		ParticipatesInQuoting: arg.ParticipatesInQuoting,
		MonthlyLeadCap:        arg.MonthlyLeadCap,
	}
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id uuid.UUID) (storage.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return storage.Campaign{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) UpdateCampaign(_ context.Context, arg storage.UpdateCampaignParams) (storage.Campaign, error) {
	c, ok := f.campaigns[arg.ID]
	if !ok {
		return storage.Campaign{}, pgx.ErrNoRows
	}
	if arg.SetEndDate {
		c.EndDate = arg.EndDate
	}
	if arg.MonthlyValue != nil {
		c.MonthlyValue = *arg.MonthlyValue
	}
	if arg.Active != nil {
		c.Active = *arg.Active
	}
	if arg.ParticipatesInQuoting != nil {
		c.ParticipatesInQuoting = *arg.ParticipatesInQuoting
	}
	if arg.SetMonthlyLeadCap {
		c.MonthlyLeadCap = arg.MonthlyLeadCap
	}
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteCampaign(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.campaigns[id]; !ok {
		return 0, nil
	}
	delete(f.campaigns, id)
	return 1, nil
}

type fakeEnsurer struct {
	listing storage.Listing
	err     error
	calls   int
}

func (f *fakeEnsurer) EnsureListing(context.Context, uuid.UUID) (storage.Listing, error) {
	f.calls++
	return f.listing, f.err
}

func newTestService(store *fakeStore, ens *fakeEnsurer) *Service {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	clk := clock.Fixed(loc, time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC))
	return NewService(store, ens, clk, zerolog.Nop())
}

func TestCreate_FromCompanyAppliesDefaults(t *testing.T) {
	store := newFakeStore()
	plan := storage.Plan{ID: uuid.New(), DefaultMonthlyValue: 199.9}
	store.plans[plan.ID] = plan
	ens := &fakeEnsurer{listing: storage.Listing{ID: uuid.New()}}
	svc := newTestService(store, ens)

	c, err := svc.Create(context.Background(), CreateInput{PlanID: plan.ID, CompanyID: ptr(uuid.New())})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ens.calls != 1 || c.ListingID != ens.listing.ID {
		t.Errorf("listing not ensured: calls=%d listing=%s", ens.calls, c.ListingID)
	}
	if c.Active {
		t.Error("new campaigns should be inactive by default")
	}
	if !c.ParticipatesInQuoting {
		t.Error("new campaigns should take part in quoting by default")
	}
	if c.MonthlyValue != 199.9 {
		t.Errorf("MonthlyValue = %v, want plan default", c.MonthlyValue)
	}
	if !c.StartDate.Equal(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", c.StartDate)
	}
}

func TestCreate_FromListing(t *testing.T) {
	store := newFakeStore()
	plan := storage.Plan{ID: uuid.New()}
	listing := storage.Listing{ID: uuid.New()}
	store.plans[plan.ID] = plan
	store.listings[listing.ID] = listing
	ens := &fakeEnsurer{}
	svc := newTestService(store, ens)

	c, err := svc.Create(context.Background(), CreateInput{
		PlanID:       plan.ID,
		ListingID:    &listing.ID,
		Active:       ptr(true),
		MonthlyValue: ptr(50.0),
		EndDate:      ptr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ens.calls != 0 {
		t.Error("EnsureListing called although listingId was given")
	}
	if !c.Active || c.MonthlyValue != 50 || c.EndDate == nil {
		t.Errorf("overrides not applied: %+v", c)
	}
}

func TestCreate_Errors(t *testing.T) {
	store := newFakeStore()
	plan := storage.Plan{ID: uuid.New()}
	store.plans[plan.ID] = plan

	tests := []struct {
		name  string
		in    CreateInput
		ens   *fakeEnsurer
		check func(error) bool
	}{
		{
			name:  "missing plan id",
			in:    CreateInput{CompanyID: ptr(uuid.New())},
			check: isValidation,
		},
		{
			name:  "missing company and listing",
			in:    CreateInput{PlanID: plan.ID},
			check: isValidation,
		},
		{
			name:  "unknown plan",
			in:    CreateInput{PlanID: uuid.New(), CompanyID: ptr(uuid.New())},
			check: isNotFound,
		},
		{
			name:  "unknown listing",
			in:    CreateInput{PlanID: plan.ID, ListingID: ptr(uuid.New())},
			check: isNotFound,
		},
		{
			name:  "unknown company",
			in:    CreateInput{PlanID: plan.ID, CompanyID: ptr(uuid.New())},
			ens:   &fakeEnsurer{err: &apperr.NotFoundError{Resource: "company"}},
			check: isNotFound,
		},
		{
			name: "end before start",
			in: CreateInput{
				PlanID:    plan.ID,
				CompanyID: ptr(uuid.New()),
				EndDate:   ptr(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
			},
			check: isValidation,
		},
		{
			name:  "negative value",
			in:    CreateInput{PlanID: plan.ID, CompanyID: ptr(uuid.New()), MonthlyValue: ptr(-1.0)},
			check: isValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ens := tt.ens
			if ens == nil {
				ens = &fakeEnsurer{listing: storage.Listing{ID: uuid.New()}}
			}
			_, err := newTestService(store, ens).Create(context.Background(), tt.in)
			if !tt.check(err) {
				t.Errorf("Create() error = %v", err)
			}
		})
	}
}

func TestUpdate_PartialWithCategoryCascade(t *testing.T) {
	store := newFakeStore()
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	leadCap := int32(30)
	existing := storage.Campaign{ID: uuid.New(), ListingID: uuid.New(), EndDate: &end, MonthlyValue: 100, MonthlyLeadCap: &leadCap}
	store.campaigns[existing.ID] = existing
	svc := newTestService(store, &fakeEnsurer{})

	c, err := svc.Update(context.Background(), existing.ID, UpdateInput{
		SetEndDate: true,
		Active:     ptr(true),
		Category:   ptr("premium"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if c.EndDate != nil {
		t.Error("end date should be cleared")
	}
	if !c.Active || c.MonthlyValue != 100 || c.MonthlyLeadCap == nil {
		t.Errorf("untouched fields changed: %+v", c)
	}
	if store.categories[existing.ListingID] != "premium" {
		t.Error("category not cascaded to listing")
	}
}

func TestUpdate_CascadeFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	existing := storage.Campaign{ID: uuid.New(), ListingID: uuid.New()}
	store.campaigns[existing.ID] = existing
	store.categoryErr = errors.New("db hiccup")
	svc := newTestService(store, &fakeEnsurer{})

	if _, err := svc.Update(context.Background(), existing.ID, UpdateInput{Category: ptr("x")}); err != nil {
		t.Fatalf("Update() error = %v, cascade failure must not fail the update", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeEnsurer{})
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Active: ptr(false)})
	if !isNotFound(err) {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	existing := storage.Campaign{ID: uuid.New()}
	store.campaigns[existing.ID] = existing
	svc := newTestService(store, &fakeEnsurer{})

	if err := svc.Delete(context.Background(), existing.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), existing.ID); !isNotFound(err) {
		t.Errorf("second Delete() error = %v, want NotFound", err)
	}
}

func isValidation(err error) bool {
	var v *apperr.ValidationError
	return errors.As(err, &v)
}

func isNotFound(err error) bool {
	var nf *apperr.NotFoundError
	return errors.As(err, &nf)
}
