package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

const reportsLimit = 50

type ActivityStore interface {
	Create(ctx context.Context, a *models.Activity) error
	ListByUser(ctx context.Context, userID uuid.UUID, activityType string, limit int) ([]*models.Activity, error)
	CountByType(ctx context.Context, userID uuid.UUID) (map[string]int, error)
}

// ActivityService keeps the report history shown on a farmer's reports page.
type ActivityService struct {
	store ActivityStore
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// Record stores a for the signed-in user. Anonymous calls are skipped and
// failures are logged; recording never fails the caller's request.
func (s *ActivityService) Record(ctx context.Context, userID uuid.UUID, a models.Activity) {
	if userID == uuid.Nil {
		return
	}
	a.UserID = userID
	if err := s.store.Create(ctx, &a); err != nil {
		logger.ErrorWithFields("failed to record activity", logger.Fields{
			"user_id": userID.String(),
			"type":    a.Type,
			"error":   err.Error(),
		})
	}
}

func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, activityType string) ([]*models.Activity, error) {
	if activityType != "" && !models.ValidActivityType(activityType) {
		return nil, &ValidationError{Fields: map[string]string{
			"type": "Type must be one of disease, weather, market, fertilizer",
		}}
	}
	return s.store.ListByUser(ctx, userID, activityType, reportsLimit)
}

func WeatherActivity(data *simulation.WeatherData) models.Activity {
	result := data.IrrigationAdvice.Reason
	if len(data.Alerts) > 0 {
		result = fmt.Sprintf("%s alert issued", data.Alerts[0].Type)
	}
	return models.Activity{
		Type:        models.ActivityWeather,
		Title:       "Weather Forecast Query",
		Description: fmt.Sprintf("7-day forecast for %s", data.Current.Location),
		Result:      &result,
	}
}

func MarketActivity(data *simulation.MarketData) models.Activity {
	result := fmt.Sprintf("Average change %+.1f%%", data.AverageChange)
	if len(data.TopGainers) > 0 {
		g := data.TopGainers[0]
		result = fmt.Sprintf("Top gainer %s ₹%s/quintal (%+.1f%%)", g.Crop, formatRupees(g.Price), g.Change)
	}
	return models.Activity{
		Type:        models.ActivityMarket,
		Title:       "Market Price Check",
		Description: fmt.Sprintf("%d crops across APMC markets", len(data.Prices)),
		Result:      &result,
	}
}

func FertilizerActivity(soil simulation.SoilData, rec *simulation.FertilizerRecommendation) models.Activity {
	result := fmt.Sprintf("₹%s/hectare fertilizer cost", formatRupees(rec.TotalCost))
	return models.Activity{
		Type:        models.ActivityFertilizer,
		Title:       "NPK Analysis",
		Description: fmt.Sprintf("%s soil - pH %.1f - %s crop", soil.SoilType, soil.PH, titleCase(soil.Crop)),
		Result:      &result,
	}
}

func DiseaseActivity(a *simulation.DiseaseAnalysis) models.Activity {
	result := "Treatment recommendations provided"
	return models.Activity{
		Type:        models.ActivityDisease,
		Title:       fmt.Sprintf("%s Detection", a.Disease.Name),
		Description: fmt.Sprintf("%d%% confidence - %s severity", a.Disease.Confidence, titleCase(a.Disease.Severity)),
		Result:      &result,
	}
}

// formatRupees groups digits the Indian way: 12,34,567.
func formatRupees(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		s = strings.Join(parts, ",") + "," + tail
	}
	if neg {
		return "-" + s
	}
	return s
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
