package handlers

import (
	"net/http"

	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
)

type ReportsHandler struct {
	activityService  *services.ActivityService
	dashboardService *services.DashboardService
}

func NewReportsHandler(activityService *services.ActivityService, dashboardService *services.DashboardService) *ReportsHandler {
	return &ReportsHandler{activityService: activityService, dashboardService: dashboardService}
}

// List returns the caller's history, newest first, optionally filtered by ?type=.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activityService.List(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("type"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": activities})
}

func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
