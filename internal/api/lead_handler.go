package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/matcher"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// simulateRequest synthesizes a lead. Every field is optional; blanks take
// the defaults below.
type simulateRequest struct {
	CustomerName     string  `json:"nome_cliente" validate:"omitempty,max=200"`
	CustomerEmail    string  `json:"email_cliente" validate:"omitempty,email"`
	CustomerPhone    string  `json:"telefone_cliente" validate:"omitempty,max=40"`
	OriginCity       string  `json:"origem_cidade" validate:"omitempty,max=200"`
	OriginState      string  `json:"origem_estado" validate:"omitempty,len=2"`
	DestinationCity  string  `json:"destino_cidade" validate:"omitempty,max=200"`
	DestinationState string  `json:"destino_estado" validate:"omitempty,len=2"`
	PropertyType     string  `json:"tipo_imovel" validate:"omitempty,max=100"`
	Rooms            int32   `json:"comodos" validate:"gte=0"`
	DistanceKm       float64 `json:"distancia_km" validate:"gte=0"`
	PriceMin         float64 `json:"preco_min" validate:"gte=0"`
	PriceMax         float64 `json:"preco_max" validate:"gte=0"`
}

func (req *simulateRequest) applyDefaults() {
	def := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	def(&req.CustomerName, "Cliente Teste")
	def(&req.CustomerEmail, "cliente.teste@example.com")
	def(&req.CustomerPhone, "(11) 99999-0000")
	def(&req.OriginCity, "São Paulo")
	def(&req.OriginState, "SP")
	def(&req.DestinationCity, "São Paulo")
	def(&req.DestinationState, "SP")
	def(&req.PropertyType, "apartamento")
	if req.Rooms == 0 {
		req.Rooms = 2
	}
	if req.DistanceKm == 0 {
		req.DistanceKm = 10
	}
	if req.PriceMin == 0 && req.PriceMax == 0 {
		req.PriceMin, req.PriceMax = 800, 1200
	}
}

type simulateResponse struct {
	*matcher.Result
	Input simulateRequest `json:"input"`
}

// SimulateLeadHandler handles POST /leads/simulate: it stores a synthetic
// lead and matches it like a real one, echoing the effective input.
func SimulateLeadHandler(leads LeadStore, m LeadMatcher, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req simulateRequest
		if r.ContentLength != 0 {
			if details := decodeAndValidate(r, &req); details != nil {
				respondValidationErrors(w, details)
				return
			}
		}
		req.applyDefaults()
		if req.PriceMax < req.PriceMin {
			respondValidationErrors(w, []string{"preco_max: must be greater than or equal to preco_min"})
			return
		}

		lead, err := leads.CreateLead(r.Context(), storage.CreateLeadParams{
			CustomerName:     req.CustomerName,
			CustomerEmail:    req.CustomerEmail,
			CustomerPhone:    req.CustomerPhone,
			OriginCity:       req.OriginCity,
			OriginState:      req.OriginState,
			DestinationCity:  req.DestinationCity,
			DestinationState: req.DestinationState,
			PropertyType:     req.PropertyType,
			Rooms:            req.Rooms,
			DistanceKm:       req.DistanceKm,
			PriceMin:         req.PriceMin,
			PriceMax:         req.PriceMax,
		})
		if err != nil {
			respondErr(w, r, log, "create lead", apperr.Storage("create lead", err))
			return
		}

		res, err := m.Match(r.Context(), lead.ID)
		if err != nil {
			respondErr(w, r, log, "match lead", err)
			return
		}
		respondJSON(w, http.StatusOK, simulateResponse{Result: res, Input: req})
	}
}

// MatchLeadHandler handles POST /leads/{id}/match. Re-running it for the
// same lead reuses the existing delivery records.
func MatchLeadHandler(m LeadMatcher, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid lead id")
			return
		}
		res, err := m.Match(r.Context(), id)
		if err != nil {
			respondErr(w, r, log, "match lead", err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// ListLeadDeliveriesHandler handles GET /leads/{id}/deliveries.
func ListLeadDeliveriesHandler(leads LeadStore, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid lead id")
			return
		}

		if _, err := leads.GetLead(r.Context(), id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = &apperr.NotFoundError{Resource: "lead", ID: id.String()}
			} else {
				err = apperr.Storage("get lead", err)
			}
			respondErr(w, r, log, "list lead deliveries", err)
			return
		}

		records, err := leads.ListDeliveriesByLead(r.Context(), id)
		if err != nil {
			respondErr(w, r, log, "list lead deliveries", apperr.Storage("list deliveries", err))
			return
		}
		if records == nil {
			records = []storage.DeliveryRecord{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"leadId": id, "deliveries": records})
	}
}
