package api

import (
	"net/http"

	"github.com/rs/zerolog"
)

type testModeRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type testModeResponse struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
}

// GetTestModeHandler handles GET /test-mode.
func GetTestModeHandler(s TestModeSettings, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Load(r.Context())
		if err != nil {
			respondErr(w, r, log, "load settings", err)
			return
		}
		respondJSON(w, http.StatusOK, testModeResponse{Enabled: snap.TestMode, Provider: snap.Provider.Type})
	}
}

// SetTestModeHandler handles PUT /test-mode. The flag is persisted and
// takes effect on every instance once its settings cache expires.
func SetTestModeHandler(s TestModeSettings, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testModeRequest
		if details := decodeAndValidate(r, &req); details != nil {
			respondValidationErrors(w, details)
			return
		}
		if err := s.SetTestMode(r.Context(), *req.Enabled); err != nil {
			respondErr(w, r, log, "set test mode", err)
			return
		}

		snap, err := s.Load(r.Context())
		if err != nil {
			respondErr(w, r, log, "load settings", err)
			return
		}
		log.Info().Bool("enabled", snap.TestMode).Msg("test mode updated")
		respondJSON(w, http.StatusOK, testModeResponse{Enabled: snap.TestMode, Provider: snap.Provider.Type})
	}
}

// TestModeLogHandler handles GET /test-mode/log.
func TestModeLogHandler(l TestModeLog, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := l.Log(r.Context())
		if err != nil {
			respondErr(w, r, log, "test mode log", err)
			return
		}
		respondJSON(w, http.StatusOK, report)
	}
}

// ClearTestModeLogHandler handles DELETE /test-mode/log. Only the view is
// cleared; tracking rows stay in the database.
func ClearTestModeLogHandler(l TestModeLog, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := l.Clear(r.Context()); err != nil {
			respondErr(w, r, log, "clear test-mode log", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
