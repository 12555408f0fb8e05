package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/storage"
)

type requeueRequest struct {
	LeadID           string  `json:"leadId" validate:"required,uuid"`
	DeliveryRecordID *string `json:"deliveryRecordId" validate:"omitempty,uuid"`
}

type requeueResponse struct {
	Requeued       int                     `json:"requeued"`
	DeliveryRecord *storage.DeliveryRecord `json:"deliveryRecord,omitempty"`
}

// RequeueHandler handles POST /deliveries/requeue. With deliveryRecordId it
// resets that one record; without it every sent or failed record of the
// lead goes back to the queue.
func RequeueHandler(m Requeuer, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requeueRequest
		if details := decodeAndValidate(r, &req); details != nil {
			respondValidationErrors(w, details)
			return
		}
		leadID := uuid.MustParse(req.LeadID)

		if recordID := parseUUIDPtr(req.DeliveryRecordID); recordID != nil {
			rec, err := m.Requeue(r.Context(), leadID, *recordID)
			if err != nil {
				respondErr(w, r, log, "requeue delivery", err)
				return
			}
			respondJSON(w, http.StatusOK, requeueResponse{Requeued: 1, DeliveryRecord: &rec})
			return
		}

		n, err := m.RequeueAll(r.Context(), leadID)
		if err != nil {
			respondErr(w, r, log, "requeue lead deliveries", err)
			return
		}
		respondJSON(w, http.StatusOK, requeueResponse{Requeued: n})
	}
}
