package handlers

import (
	"net/http"

	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/services"
	"agri-advisor-backend/internal/simulation"
)

// FarmHandler serves the weather, market and fertilizer tools. Signed-in
// calls leave an entry in the farmer's reports.
type FarmHandler struct {
	weather    simulation.WeatherSource
	market     simulation.MarketSource
	fertilizer simulation.FertilizerAdvisor
	activities *services.ActivityService
}

func NewFarmHandler(weather simulation.WeatherSource, market simulation.MarketSource, fertilizer simulation.FertilizerAdvisor, activities *services.ActivityService) *FarmHandler {
	return &FarmHandler{weather: weather, market: market, fertilizer: fertilizer, activities: activities}
}

func (h *FarmHandler) Weather(w http.ResponseWriter, r *http.Request) {
	data, err := h.weather.Forecast(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.activities.Record(r.Context(), middleware.GetUserID(r.Context()), services.WeatherActivity(data))
	writeJSON(w, http.StatusOK, data)
}

func (h *FarmHandler) MarketPrices(w http.ResponseWriter, r *http.Request) {
	data, err := h.market.Prices(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.activities.Record(r.Context(), middleware.GetUserID(r.Context()), services.MarketActivity(data))
	writeJSON(w, http.StatusOK, data)
}

func (h *FarmHandler) Fertilizer(w http.ResponseWriter, r *http.Request) {
	var soil simulation.SoilData
	if err := decodeJSON(w, r, &soil); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}
	if fields := simulation.ValidateSoil(soil); len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	rec, err := h.fertilizer.Recommend(r.Context(), soil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.activities.Record(r.Context(), middleware.GetUserID(r.Context()), services.FertilizerActivity(soil, rec))
	writeJSON(w, http.StatusOK, rec)
}
