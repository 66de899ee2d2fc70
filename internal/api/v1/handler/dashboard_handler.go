package handler

import (
	"net/http"

	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           zerolog.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.getSummary)
	r.Get("/dashboard/revenue", h.getRevenue)
}

// getSummary godoc
// @Summary Dashboard headline figures
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.DashboardSummary
// @Router /dashboard/summary [get]
func (h *DashboardHandler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to build dashboard summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// getRevenue godoc
// @Summary Invoiced revenue per month
// @Tags dashboard
// @Produce json
// @Param months query int false "Number of months" default(12)
// @Success 200 {array} model.MonthlyRevenue
// @Router /dashboard/revenue [get]
func (h *DashboardHandler) getRevenue(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 0)
	if err != nil {
		http.Error(w, "Invalid months", http.StatusBadRequest)
		return
	}
	series, err := h.dashboardService.RevenueSeries(r.Context(), months)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to build revenue series")
		return
	}
	writeJSON(w, http.StatusOK, series)
}
