// This file implements the AI analysis handlers.
//
// Routes handled:
//   - GET  /api/ai/status   -> Status
//   - POST /api/ai/analyze  -> Analyze
//   - GET  /api/ai/analyses -> History
//
// Analyses always run on the caller's own data; the active account does not
// apply here.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
)

// AnalysisHandler handles AI analysis requests.
type AnalysisHandler struct {
	analysis service.AnalysisService
	profiles service.ProfileService
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysis service.AnalysisService, profiles service.ProfileService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterRoutes registers AI routes on the provided mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux, requireIdentity func(http.Handler) http.Handler) {
	mux.Handle("GET /api/ai/status", requireIdentity(http.HandlerFunc(h.Status)))
	mux.Handle("POST /api/ai/analyze", requireIdentity(http.HandlerFunc(h.Analyze)))
	mux.Handle("GET /api/ai/analyses", requireIdentity(http.HandlerFunc(h.History)))
}

// Status reports whether the caller may run an analysis now.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	tier := h.profiles.GetTier(r.Context(), id.UserID)
	gate, err := h.analysis.CanRunAnalysis(r.Context(), id.UserID, tier)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, gate)
}

// AnalyzeRequest optionally narrows the analyzed period. A missing end
// means now; a missing start means 30 days before the end.
type AnalyzeRequest struct {
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

// Analyze runs an analysis when the caller's window allows it.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req AnalyzeRequest
	if err := decodeJSON(r, "analysis.run", &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.RunAnalysisParams{UserID: id.UserID}
	if req.PeriodStart != nil {
		params.PeriodStart = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		params.PeriodEnd = *req.PeriodEnd
	}

	entry, err := h.analysis.Run(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// History lists the caller's past analyses, newest first.
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			ErrorResponse(w, r, h.logger, domain.Invalid("analysis.history", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.analysis.History(r.Context(), id.UserID, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []domain.AnalysisHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": entries})
}
