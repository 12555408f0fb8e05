package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/campaign"
)

type createCampaignRequest struct {
	PlanID                string   `json:"planId" validate:"required,uuid"`
	CompanyID             *string  `json:"companyId" validate:"omitempty,uuid"`
	ListingID             *string  `json:"listingId" validate:"omitempty,uuid"`
	StartDate             *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate               *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Active                *bool    `json:"active"`
	MonthlyValue          *float64 `json:"monthlyValue" validate:"omitempty,gte=0"`
	ParticipatesInQuoting *bool    `json:"participatesInQuoting"`
	MonthlyLeadCap        *int32   `json:"monthlyLeadCap" validate:"omitempty,gte=0"`
}

// CreateCampaignHandler handles POST /campaigns.
func CreateCampaignHandler(svc CampaignService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCampaignRequest
		if details := decodeAndValidate(r, &req); details != nil {
			respondValidationErrors(w, details)
			return
		}

		c, err := svc.Create(r.Context(), campaign.CreateInput{
			PlanID:                uuid.MustParse(req.PlanID),
			CompanyID:             parseUUIDPtr(req.CompanyID),
			ListingID:             parseUUIDPtr(req.ListingID),
			StartDate:             parseDatePtr(req.StartDate),
			EndDate:               parseDatePtr(req.EndDate),
			Active:                req.Active,
			MonthlyValue:          req.MonthlyValue,
			ParticipatesInQuoting: req.ParticipatesInQuoting,
			MonthlyLeadCap:        req.MonthlyLeadCap,
		})
		if err != nil {
			respondErr(w, r, log, "create campaign", err)
			return
		}
		respondJSON(w, http.StatusCreated, c)
	}
}

type updateCampaignRequest struct {
	EndDate               Optional[string] `json:"endDate"`
	MonthlyValue          *float64         `json:"monthlyValue" validate:"omitempty,gte=0"`
	Active                *bool            `json:"active"`
	ParticipatesInQuoting *bool            `json:"participatesInQuoting"`
	MonthlyLeadCap        Optional[int32]  `json:"monthlyLeadCap"`
	Category              *string          `json:"category" validate:"omitempty,max=100"`
}

// validate covers the nullable fields the struct tags cannot reach.
func (req updateCampaignRequest) validate() []string {
	var details []string
	if req.EndDate.Value != nil && parseDatePtr(req.EndDate.Value) == nil {
		details = append(details, "endDate: must be a date in YYYY-MM-DD format")
	}
	if req.MonthlyLeadCap.Value != nil && *req.MonthlyLeadCap.Value < 0 {
		details = append(details, "monthlyLeadCap: must be greater than or equal to 0")
	}
	return details
}

// UpdateCampaignHandler handles PATCH /campaigns/{id}.
func UpdateCampaignHandler(svc CampaignService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid campaign id")
			return
		}

		var req updateCampaignRequest
		details := decodeAndValidate(r, &req)
		if details == nil {
			details = req.validate()
		}
		if details != nil {
			respondValidationErrors(w, details)
			return
		}

		c, err := svc.Update(r.Context(), id, campaign.UpdateInput{
			SetEndDate:            req.EndDate.Set,
			EndDate:               parseDatePtr(req.EndDate.Value),
			MonthlyValue:          req.MonthlyValue,
			Active:                req.Active,
			ParticipatesInQuoting: req.ParticipatesInQuoting,
			SetMonthlyLeadCap:     req.MonthlyLeadCap.Set,
			MonthlyLeadCap:        req.MonthlyLeadCap.Value,
			Category:              req.Category,
		})
		if err != nil {
			respondErr(w, r, log, "update campaign", err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// DeleteCampaignHandler handles DELETE /campaigns/{id}.
func DeleteCampaignHandler(svc CampaignService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid campaign id")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			respondErr(w, r, log, "delete campaign", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type scanResponse struct {
	Created    int           `json:"emails_criados"`
	ExecutedAt string        `json:"executado_em"`
	Failures   []scanFailure `json:"falhas,omitempty"`
}

type scanFailure struct {
	CampaignID uuid.UUID `json:"campanha_id"`
	Error      string    `json:"erro"`
}

// ExpirationScanHandler handles POST /campaigns/expiration-scan. The scan
// reports partial failures in its body and always answers 200.
func ExpirationScanHandler(s ScanRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.Run(r.Context())

		resp := scanResponse{
			Created:    res.Created,
			ExecutedAt: res.FormattedExecutedAt(),
		}
		for _, f := range res.Failures {
			resp.Failures = append(resp.Failures, scanFailure{CampaignID: f.CampaignID, Error: f.Error})
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
