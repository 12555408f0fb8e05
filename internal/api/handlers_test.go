package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/campaign"
	"github.com/mudancasja/leadqueue/internal/matcher"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/scanner"
	"github.com/mudancasja/leadqueue/internal/settings"
	"github.com/mudancasja/leadqueue/internal/storage"
	"github.com/mudancasja/leadqueue/internal/testmode"
)

// --- fakes ---

type fakeCampaigns struct {
	created   campaign.CreateInput
	updated   campaign.UpdateInput
	updatedID uuid.UUID
	deleted   uuid.UUID
	err       error
}

func (f *fakeCampaigns) Create(_ context.Context, in campaign.CreateInput) (storage.Campaign, error) {
	f.created = in
	if f.err != nil {
		return storage.Campaign{}, f.err
	}
	return storage.Campaign{ID: uuid.New(), PlanID: in.PlanID}, nil
}

func (f *fakeCampaigns) Update(_ context.Context, id uuid.UUID, in campaign.UpdateInput) (storage.Campaign, error) {
	f.updatedID, f.updated = id, in
	if f.err != nil {
		return storage.Campaign{}, f.err
	}
	return storage.Campaign{ID: id, EndDate: in.EndDate}, nil
}

func (f *fakeCampaigns) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

type fakeScanner struct{ res scanner.Result }

func (f fakeScanner) Run(context.Context) scanner.Result { return f.res }

type fakeRequeuer struct {
	leadID, recordID uuid.UUID
	bulk             int
	err              error
}

func (f *fakeRequeuer) Requeue(_ context.Context, leadID, recordID uuid.UUID) (storage.DeliveryRecord, error) {
	f.leadID, f.recordID = leadID, recordID
	if f.err != nil {
		return storage.DeliveryRecord{}, f.err
	}
	return storage.DeliveryRecord{ID: recordID, LeadID: &leadID, Status: storage.DeliveryQueued}, nil
}

func (f *fakeRequeuer) RequeueAll(_ context.Context, leadID uuid.UUID) (int, error) {
	f.leadID = leadID
	return f.bulk, f.err
}

type fakeLeads struct {
	created storage.CreateLeadParams
	leads   map[uuid.UUID]storage.Lead
	records []storage.DeliveryRecord
	getErr  error
	listErr error
}

func (f *fakeLeads) CreateLead(_ context.Context, arg storage.CreateLeadParams) (storage.Lead, error) {
	f.created = arg
	l := storage.Lead{ID: uuid.New(), CustomerName: arg.CustomerName}
	if f.leads == nil {
		f.leads = map[uuid.UUID]storage.Lead{}
	}
	f.leads[l.ID] = l
	return l, nil
}

func (f *fakeLeads) GetLead(_ context.Context, id uuid.UUID) (storage.Lead, error) {
	if f.getErr != nil {
		return storage.Lead{}, f.getErr
	}
	l, ok := f.leads[id]
	if !ok {
		return storage.Lead{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeLeads) ListDeliveriesByLead(context.Context, uuid.UUID) ([]storage.DeliveryRecord, error) {
	return f.records, f.listErr
}

type fakeMatcher struct {
	called uuid.UUID
	err    error
}

func (f *fakeMatcher) Match(_ context.Context, leadID uuid.UUID) (*matcher.Result, error) {
	f.called = leadID
	if f.err != nil {
		return nil, f.err
	}
	c := uuid.New()
	return &matcher.Result{LeadID: leadID, Notified: 1, CampaignIDs: []uuid.UUID{c}, DeliveryIDs: []uuid.UUID{uuid.New()}}, nil
}

type fakeTestLog struct {
	report   testmode.Report
	cleared  bool
	clearErr error
}

func (f *fakeTestLog) Log(context.Context) (testmode.Report, error) { return f.report, nil }
func (f *fakeTestLog) Clear(context.Context) error {
	f.cleared = true
	return f.clearErr
}

type fakeSettings struct {
	enabled bool
	setErr  error
}

func (f *fakeSettings) Load(context.Context) (settings.Snapshot, error) {
	return settings.Snapshot{TestMode: f.enabled, Provider: provider.ProviderConfig{Type: "stdout"}}, nil
}

func (f *fakeSettings) SetTestMode(_ context.Context, enabled bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.enabled = enabled
	return nil
}

type testDeps struct {
	campaigns *fakeCampaigns
	requeue   *fakeRequeuer
	leads     *fakeLeads
	matcher   *fakeMatcher
	testLog   *fakeTestLog
	settings  *fakeSettings
}

func newTestRouter(t *testing.T, token string) (*chi.Mux, *testDeps) {
	t.Helper()
	td := &testDeps{
		campaigns: &fakeCampaigns{},
		requeue:   &fakeRequeuer{},
		leads:     &fakeLeads{},
		matcher:   &fakeMatcher{},
		testLog:   &fakeTestLog{},
		settings:  &fakeSettings{},
	}
	r := NewRouter(Deps{
		DB:         fakePinger{},
		Campaigns:  td.campaigns,
		Scanner:    fakeScanner{},
		Requeue:    td.requeue,
		Leads:      td.leads,
		Matcher:    td.matcher,
		TestLog:    td.testLog,
		Settings:   td.settings,
		AdminToken: token,
	}, zerolog.Nop())
	return r, td
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return m
}

// --- campaigns ---

func TestCreateCampaign_Success(t *testing.T) {
	r, td := newTestRouter(t, "")
	plan, company := uuid.New(), uuid.New()

	body := `{"planId":"` + plan.String() + `","companyId":"` + company.String() + `","endDate":"2026-12-31","monthlyValue":150.5}`
	rec := do(t, r, http.MethodPost, "/campaigns", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if td.campaigns.created.PlanID != plan {
		t.Errorf("plan id not passed through")
	}
	if td.campaigns.created.CompanyID == nil || *td.campaigns.created.CompanyID != company {
		t.Errorf("company id not passed through")
	}
	if td.campaigns.created.EndDate == nil || td.campaigns.created.EndDate.Format(dateLayout) != "2026-12-31" {
		t.Errorf("unexpected end date: %v", td.campaigns.created.EndDate)
	}
	if td.campaigns.created.ListingID != nil {
		t.Errorf("listing id should be nil")
	}
}

func TestCreateCampaign_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing plan", `{"companyId":"` + uuid.NewString() + `"}`, "planId: is required"},
		{"bad uuid", `{"planId":"nope"}`, "planId: must be a valid UUID"},
		{"bad date", `{"planId":"` + uuid.NewString() + `","endDate":"31/12/2026"}`, "endDate: must be a date in YYYY-MM-DD format"},
		{"negative value", `{"planId":"` + uuid.NewString() + `","monthlyValue":-1}`, "monthlyValue: must be greater than or equal to 0"},
		{"unknown field", `{"planId":"` + uuid.NewString() + `","bogus":1}`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, "")
			rec := do(t, r, http.MethodPost, "/campaigns", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeBody(t, rec)
			if resp["error"] != "validation_failed" {
				t.Errorf("expected validation_failed, got %v", resp["error"])
			}
			details, _ := resp["details"].([]any)
			found := false
			for _, d := range details {
				if s, _ := d.(string); strings.Contains(s, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected detail containing %q, got %v", tt.want, details)
			}
		})
	}
}

func TestCreateCampaign_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &apperr.ValidationError{Field: "companyId", Message: "companyId or listingId is required"}, http.StatusBadRequest},
		{"plan missing", &apperr.NotFoundError{Resource: "plan", ID: "x"}, http.StatusNotFound},
		{"unresolvable city", &apperr.ResolutionError{Query: "Nowhere/XX"}, http.StatusBadRequest},
		{"storage", apperr.Storage("create campaign", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, td := newTestRouter(t, "")
			td.campaigns.err = tt.err
			rec := do(t, r, http.MethodPost, "/campaigns", `{"planId":"`+uuid.NewString()+`"}`)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusInternalServerError {
				if resp := decodeBody(t, rec); resp["error"] != "internal server error" {
					t.Errorf("internal error leaked: %v", resp["error"])
				}
			}
		})
	}
}

func TestUpdateCampaign_NullClearsEndDate(t *testing.T) {
	r, td := newTestRouter(t, "")
	id := uuid.New()

	rec := do(t, r, http.MethodPatch, "/campaigns/"+id.String(), `{"endDate":null,"category":"mudancas"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if td.campaigns.updatedID != id {
		t.Errorf("wrong id")
	}
	if !td.campaigns.updated.SetEndDate || td.campaigns.updated.EndDate != nil {
		t.Errorf("expected end date to be cleared, got set=%v value=%v", td.campaigns.updated.SetEndDate, td.campaigns.updated.EndDate)
	}
	if td.campaigns.updated.SetMonthlyLeadCap {
		t.Errorf("absent monthlyLeadCap must not be set")
	}
	if td.campaigns.updated.Category == nil || *td.campaigns.updated.Category != "mudancas" {
		t.Errorf("category not passed through")
	}
}

func TestUpdateCampaign_SetsValues(t *testing.T) {
	r, td := newTestRouter(t, "")

	rec := do(t, r, http.MethodPatch, "/campaigns/"+uuid.NewString(), `{"endDate":"2027-01-31","monthlyLeadCap":40,"active":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	u := td.campaigns.updated
	if u.EndDate == nil || !u.EndDate.Equal(time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end date %v", u.EndDate)
	}
	if !u.SetMonthlyLeadCap || u.MonthlyLeadCap == nil || *u.MonthlyLeadCap != 40 {
		t.Errorf("unexpected lead cap")
	}
	if u.Active == nil || !*u.Active {
		t.Errorf("active not passed through")
	}
}

func TestUpdateCampaign_InvalidInput(t *testing.T) {
	r, _ := newTestRouter(t, "")

	if rec := do(t, r, http.MethodPatch, "/campaigns/not-a-uuid", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPatch, "/campaigns/"+uuid.NewString(), `{"endDate":"tomorrow"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPatch, "/campaigns/"+uuid.NewString(), `{"monthlyLeadCap":-3}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative cap: expected 400, got %d", rec.Code)
	}
}

func TestDeleteCampaign(t *testing.T) {
	r, td := newTestRouter(t, "")
	id := uuid.New()

	rec := do(t, r, http.MethodDelete, "/campaigns/"+id.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if td.campaigns.deleted != id {
		t.Errorf("wrong id deleted")
	}

	td.campaigns.err = &apperr.NotFoundError{Resource: "campaign", ID: id.String()}
	if rec := do(t, r, http.MethodDelete, "/campaigns/"+id.String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestExpirationScan_ResponseShape(t *testing.T) {
	failed := uuid.New()
	h := ExpirationScanHandler(fakeScanner{res: scanner.Result{
		Created:    2,
		ExecutedAt: time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC),
		Failures:   []scanner.Failure{{CampaignID: failed, Error: "boom"}},
	}})

	rec := do(t, h, http.MethodPost, "/campaigns/expiration-scan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["emails_criados"] != float64(2) {
		t.Errorf("unexpected emails_criados: %v", resp["emails_criados"])
	}
	if s, _ := resp["executado_em"].(string); s == "" {
		t.Errorf("missing executado_em")
	}
	falhas, _ := resp["falhas"].([]any)
	if len(falhas) != 1 {
		t.Fatalf("expected 1 failure, got %v", resp["falhas"])
	}
}

func TestExpirationScan_OmitsEmptyFailures(t *testing.T) {
	rec := do(t, ExpirationScanHandler(fakeScanner{}), http.MethodPost, "/", "")
	if _, ok := decodeBody(t, rec)["falhas"]; ok {
		t.Error("falhas should be omitted when empty")
	}
}

// --- requeue ---

func TestRequeue_Targeted(t *testing.T) {
	r, td := newTestRouter(t, "")
	lead, record := uuid.New(), uuid.New()

	rec := do(t, r, http.MethodPost, "/deliveries/requeue", `{"leadId":"`+lead.String()+`","deliveryRecordId":"`+record.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if td.requeue.leadID != lead || td.requeue.recordID != record {
		t.Errorf("ids not passed through")
	}
	resp := decodeBody(t, rec)
	if resp["requeued"] != float64(1) {
		t.Errorf("expected requeued 1, got %v", resp["requeued"])
	}
	if _, ok := resp["deliveryRecord"]; !ok {
		t.Error("expected deliveryRecord in response")
	}
}

func TestRequeue_Bulk(t *testing.T) {
	r, td := newTestRouter(t, "")
	td.requeue.bulk = 3

	rec := do(t, r, http.MethodPost, "/deliveries/requeue", `{"leadId":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["requeued"] != float64(3) {
		t.Errorf("expected requeued 3, got %v", resp["requeued"])
	}
	if _, ok := resp["deliveryRecord"]; ok {
		t.Error("bulk response should not carry a record")
	}
}

func TestRequeue_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing lead", `{}`, nil, http.StatusBadRequest},
		{"nothing to requeue", `{"leadId":"` + uuid.NewString() + `"}`, &apperr.NothingToRequeueError{LeadID: uuid.NewString()}, http.StatusBadRequest},
		{"record not found", `{"leadId":"` + uuid.NewString() + `","deliveryRecordId":"` + uuid.NewString() + `"}`, &apperr.NotFoundError{Resource: "delivery record"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, td := newTestRouter(t, "")
			td.requeue.err = tt.err
			if rec := do(t, r, http.MethodPost, "/deliveries/requeue", tt.body); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

// --- leads ---

func TestSimulateLead_Defaults(t *testing.T) {
	r, td := newTestRouter(t, "")

	rec := do(t, r, http.MethodPost, "/leads/simulate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if td.leads.created.DestinationCity != "São Paulo" || td.leads.created.DestinationState != "SP" {
		t.Errorf("unexpected destination %s/%s", td.leads.created.DestinationCity, td.leads.created.DestinationState)
	}
	if td.leads.created.PriceMin != 800 || td.leads.created.PriceMax != 1200 {
		t.Errorf("unexpected price range")
	}
	if td.matcher.called == uuid.Nil {
		t.Error("matcher not called")
	}

	resp := decodeBody(t, rec)
	if resp["notified"] != float64(1) {
		t.Errorf("expected notified 1, got %v", resp["notified"])
	}
	input, _ := resp["input"].(map[string]any)
	if input["nome_cliente"] != "Cliente Teste" {
		t.Errorf("input not echoed: %v", input)
	}
}

func TestSimulateLead_CustomDestination(t *testing.T) {
	r, td := newTestRouter(t, "")

	rec := do(t, r, http.MethodPost, "/leads/simulate", `{"destino_cidade":"Campinas","destino_estado":"SP","comodos":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if td.leads.created.DestinationCity != "Campinas" || td.leads.created.Rooms != 4 {
		t.Errorf("custom fields not used: %+v", td.leads.created)
	}
}

func TestSimulateLead_Invalid(t *testing.T) {
	r, _ := newTestRouter(t, "")

	if rec := do(t, r, http.MethodPost, "/leads/simulate", `{"destino_estado":"SAO"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad state, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/leads/simulate", `{"preco_min":500,"preco_max":100}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestSimulateLead_UnresolvableDestination(t *testing.T) {
	r, td := newTestRouter(t, "")
	td.matcher.err = &apperr.ResolutionError{Query: "Atlantida/ZZ"}

	rec := do(t, r, http.MethodPost, "/leads/simulate", `{"destino_cidade":"Atlantida","destino_estado":"ZZ"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMatchLead(t *testing.T) {
	r, td := newTestRouter(t, "")
	id := uuid.New()

	rec := do(t, r, http.MethodPost, "/leads/"+id.String()+"/match", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if td.matcher.called != id {
		t.Error("matcher called with wrong id")
	}

	td.matcher.err = &apperr.NotFoundError{Resource: "lead", ID: id.String()}
	if rec := do(t, r, http.MethodPost, "/leads/"+id.String()+"/match", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListLeadDeliveries(t *testing.T) {
	r, td := newTestRouter(t, "")
	id := uuid.New()
	td.leads.leads = map[uuid.UUID]storage.Lead{id: {ID: id}}
	td.leads.records = []storage.DeliveryRecord{{ID: uuid.New(), LeadID: &id, Status: storage.DeliverySent}}

	rec := do(t, r, http.MethodGet, "/leads/"+id.String()+"/deliveries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	deliveries, _ := decodeBody(t, rec)["deliveries"].([]any)
	if len(deliveries) != 1 {
		t.Errorf("expected 1 delivery, got %d", len(deliveries))
	}

	if rec := do(t, r, http.MethodGet, "/leads/"+uuid.NewString()+"/deliveries", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown lead: expected 404, got %d", rec.Code)
	}
}

// --- test mode ---

func TestTestMode_GetAndSet(t *testing.T) {
	r, td := newTestRouter(t, "")

	rec := do(t, r, http.MethodPut, "/test-mode", `{"enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !td.settings.enabled {
		t.Error("flag not persisted")
	}

	rec = do(t, r, http.MethodGet, "/test-mode", "")
	resp := decodeBody(t, rec)
	if resp["enabled"] != true {
		t.Errorf("expected enabled true, got %v", resp["enabled"])
	}
	if resp["provider"] != "stdout" {
		t.Errorf("expected provider stdout, got %v", resp["provider"])
	}
}

func TestTestMode_SetRequiresEnabled(t *testing.T) {
	r, _ := newTestRouter(t, "")
	if rec := do(t, r, http.MethodPut, "/test-mode", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTestModeLog_ReportAndClear(t *testing.T) {
	r, td := newTestRouter(t, "")
	td.testLog.report = testmode.Report{
		Captures: []testmode.Capture{{ID: uuid.New(), Recipient: "a@example.com"}},
		Stats:    testmode.Stats{Total: 1, DistinctRecipients: 1},
	}

	rec := do(t, r, http.MethodGet, "/test-mode/log", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	emails, _ := resp["emails"].([]any)
	if len(emails) != 1 {
		t.Errorf("expected 1 email, got %v", resp["emails"])
	}

	rec = do(t, r, http.MethodDelete, "/test-mode/log", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !td.testLog.cleared {
		t.Error("Clear not called")
	}
}

func TestTestModeLog_ClearFailure(t *testing.T) {
	r, td := newTestRouter(t, "")
	td.testLog.clearErr = apperr.Storage("list test captures", errors.New("connection reset"))

	rec := do(t, r, http.MethodDelete, "/test-mode/log", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// --- router ---

func TestRouter_AdminTokenGuardsRoutes(t *testing.T) {
	r, _ := newTestRouter(t, "s3cret")

	if rec := do(t, r, http.MethodGet, "/test-mode", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test-mode", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}

	if rec := do(t, r, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz must stay open, got %d", rec.Code)
	}
}

func TestRespondErr_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	respondErr(rec, req, zerolog.Nop(), "op", &apperr.ConflictError{Resource: "hotsites"})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}
