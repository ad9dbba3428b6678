package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

type DashboardWeather struct {
	Location    string                      `json:"location"`
	Temperature int                         `json:"temperature"`
	Condition   simulation.WeatherCondition `json:"condition"`
	AlertCount  int                         `json:"alertCount"`
	ShouldWater bool                        `json:"shouldWater"`
}

type DashboardMarket struct {
	AverageChange float64               `json:"averageChange"`
	TopGainer     *simulation.CropPrice `json:"topGainer"`
}

type DashboardSummary struct {
	Weather        DashboardWeather   `json:"weather"`
	Market         DashboardMarket    `json:"market"`
	ActivityCounts map[string]int     `json:"activityCounts"`
	Recent         []*models.Activity `json:"recent"`
}

const dashboardRecent = 5

type DashboardService struct {
	users      UserStore
	weather    simulation.WeatherSource
	market     simulation.MarketSource
	activities ActivityStore
}

func NewDashboardService(users UserStore, weather simulation.WeatherSource, market simulation.MarketSource, activities ActivityStore) *DashboardService {
	return &DashboardService{users: users, weather: weather, market: market, activities: activities}
}

// Summary gathers the dashboard cards concurrently; any failing source fails
// the whole summary.
func (s *DashboardService) Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	var out DashboardSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		location := ""
		user, err := s.users.GetByID(ctx, userID)
		switch {
		case err == nil:
			if user.Location != nil {
				location = *user.Location
			}
		case errors.Is(err, pgx.ErrNoRows):
			return &NotFoundError{Message: "User not found"}
		default:
			return fmt.Errorf("load profile: %w", err)
		}

		data, err := s.weather.Forecast(ctx, location)
		if err != nil {
			return fmt.Errorf("weather: %w", err)
		}
		out.Weather = DashboardWeather{
			Location:    data.Current.Location,
			Temperature: data.Current.Temperature,
			Condition:   data.Current.Condition,
			AlertCount:  len(data.Alerts),
			ShouldWater: data.IrrigationAdvice.ShouldWater,
		}
		return nil
	})

	g.Go(func() error {
		data, err := s.market.Prices(ctx)
		if err != nil {
			return fmt.Errorf("market: %w", err)
		}
		out.Market.AverageChange = data.AverageChange
		if len(data.TopGainers) > 0 {
			top := data.TopGainers[0]
			out.Market.TopGainer = &top
		}
		return nil
	})

	g.Go(func() error {
		counts, err := s.activities.CountByType(ctx, userID)
		if err != nil {
			return fmt.Errorf("activity counts: %w", err)
		}
		out.ActivityCounts = counts
		return nil
	})

	g.Go(func() error {
		recent, err := s.activities.ListByUser(ctx, userID, "", dashboardRecent)
		if err != nil {
			return fmt.Errorf("recent activity: %w", err)
		}
		out.Recent = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
