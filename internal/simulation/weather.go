package simulation

import (
	"context"
	"fmt"
	"math"
	"time"
)

type WeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"` // "Clear", "Clouds", "Rain", "Thunderstorm"
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type CurrentWeather struct {
	Location    string           `json:"location"`
	Temperature int              `json:"temperature"`
	FeelsLike   int              `json:"feelsLike"`
	Condition   WeatherCondition `json:"condition"`
	Humidity    int              `json:"humidity"`
	WindSpeed   int              `json:"windSpeed"`
	Pressure    int              `json:"pressure"`
	Sunrise     string           `json:"sunrise"`
	Sunset      string           `json:"sunset"`
}

type DailyForecast struct {
	Date          string           `json:"date"`
	DayName       string           `json:"dayName"`
	High          int              `json:"high"`
	Low           int              `json:"low"`
	Condition     WeatherCondition `json:"condition"`
	Precipitation int              `json:"precipitation"`
}

type HourlyForecast struct {
	Time        string           `json:"time"`
	Temperature int              `json:"temperature"`
	Condition   WeatherCondition `json:"condition"`
}

const (
	AlertHeavyRain = "Heavy Rain"
	AlertHeatWave  = "Heat Wave"
)

type WeatherAlert struct {
	Type     string   `json:"type"`
	Severity string   `json:"severity"` // "low" | "medium" | "high"
	Message  string   `json:"message"`
	Actions  []string `json:"actions"`
}

type IrrigationAdvice struct {
	ShouldWater bool   `json:"shouldWater"`
	Reason      string `json:"reason"`
	Amount      string `json:"amount,omitempty"`
}

type WeatherData struct {
	Current          CurrentWeather   `json:"current"`
	Daily            []DailyForecast  `json:"daily"`
	Hourly           []HourlyForecast `json:"hourly"`
	Alerts           []WeatherAlert   `json:"alerts"`
	IrrigationAdvice IrrigationAdvice `json:"irrigationAdvice"`
}

var weatherConditions = []WeatherCondition{
	{ID: 1, Main: "Clear", Description: "Clear sky", Icon: "☀️"},
	{ID: 2, Main: "Clouds", Description: "Partly cloudy", Icon: "⛅"},
	{ID: 3, Main: "Clouds", Description: "Overcast", Icon: "☁️"},
	{ID: 4, Main: "Rain", Description: "Light rain", Icon: "🌦️"},
	{ID: 5, Main: "Rain", Description: "Heavy rain", Icon: "🌧️"},
	{ID: 6, Main: "Thunderstorm", Description: "Thunderstorm", Icon: "⛈️"},
}

var defaultLocations = []string{"Pune, Maharashtra", "Delhi, NCR", "Bengaluru, Karnataka"}

// Weather produces a randomized but internally consistent forecast.
type Weather struct {
	rng *Rand
	now func() time.Time
}

func NewWeather(rng *Rand) *Weather {
	return &Weather{rng: rng, now: time.Now}
}

func (w *Weather) Forecast(ctx context.Context, location string) (*WeatherData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if location == "" {
		location = defaultLocations[w.rng.IntN(len(defaultLocations))]
	}

	currentTemp := 22 + w.rng.Float64()*15
	currentCondition := w.randomCondition()
	daily := w.daily()
	hourly := w.hourly()
	alerts := w.alerts()

	hasRainAlert := false
	for _, a := range alerts {
		if a.Type == AlertHeavyRain {
			hasRainAlert = true
			break
		}
	}
	recentRain := currentCondition.Main == "Rain"
	shouldWater := !hasRainAlert && !recentRain && w.rng.Float64() > 0.3

	advice := IrrigationAdvice{ShouldWater: shouldWater}
	switch {
	case shouldWater:
		advice.Reason = "No rain expected in next 48 hours. Soil moisture likely low."
		advice.Amount = "15-20mm per hectare"
	case hasRainAlert:
		advice.Reason = "Heavy rainfall predicted. Skip watering to avoid waterlogging."
	default:
		advice.Reason = "Recent rainfall detected. Soil moisture adequate."
	}

	return &WeatherData{
		Current: CurrentWeather{
			Location:    location,
			Temperature: round(currentTemp),
			FeelsLike:   round(currentTemp + (w.rng.Float64()-0.5)*4),
			Condition:   currentCondition,
			Humidity:    40 + round(w.rng.Float64()*40),
			WindSpeed:   round(w.rng.Float64()*20 + 5),
			Pressure:    1010 + round(w.rng.Float64()*20),
			Sunrise:     "06:15 AM",
			Sunset:      "06:45 PM",
		},
		Daily:            daily,
		Hourly:           hourly,
		Alerts:           alerts,
		IrrigationAdvice: advice,
	}, nil
}

func (w *Weather) randomCondition() WeatherCondition {
	return weatherConditions[w.rng.IntN(len(weatherConditions))]
}

// hourly follows a sine curve peaking mid-afternoon; the sky changes every six hours.
func (w *Weather) hourly() []HourlyForecast {
	baseTemp := 20 + w.rng.Float64()*15
	hourly := make([]HourlyForecast, 0, 24)

	var condition WeatherCondition
	for i := 0; i < 24; i++ {
		timeOfDay := float64(i) / 24
		variation := math.Sin(timeOfDay*math.Pi*2-math.Pi/2) * 8
		if i%6 == 0 {
			condition = w.randomCondition()
		}
		hourly = append(hourly, HourlyForecast{
			Time:        fmt.Sprintf("%02d:00", i),
			Temperature: round(baseTemp + variation),
			Condition:   condition,
		})
	}
	return hourly
}

func (w *Weather) daily() []DailyForecast {
	today := w.now()
	baseHigh := 28 + w.rng.Float64()*10
	daily := make([]DailyForecast, 0, 7)

	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, i)
		high := round(baseHigh + (w.rng.Float64()-0.5)*6)
		low := round(float64(high) - 8 - w.rng.Float64()*4)

		dayName := date.Weekday().String()[:3]
		switch i {
		case 0:
			dayName = "Today"
		case 1:
			dayName = "Tomorrow"
		}

		daily = append(daily, DailyForecast{
			Date:          date.Format("2006-01-02"),
			DayName:       dayName,
			High:          high,
			Low:           low,
			Condition:     w.randomCondition(),
			Precipitation: round(w.rng.Float64() * 80),
		})
	}
	return daily
}

func (w *Weather) alerts() []WeatherAlert {
	alerts := []WeatherAlert{}
	r := w.rng.Float64()

	switch {
	case r > 0.7:
		alerts = append(alerts, WeatherAlert{
			Type:     AlertHeavyRain,
			Severity: "high",
			Message:  "Heavy rainfall expected tomorrow. Potential flooding in low-lying areas.",
			Actions: []string{
				"Ensure proper drainage in fields",
				"Cover sensitive crops",
				"Postpone spraying activities",
				"Check irrigation channels",
			},
		})
	case r > 0.5:
		alerts = append(alerts, WeatherAlert{
			Type:     AlertHeatWave,
			Severity: "medium",
			Message:  "Temperature expected to rise above 40°C for the next 3 days.",
			Actions: []string{
				"Increase irrigation frequency",
				"Provide shade for young plants",
				"Monitor for heat stress",
				"Avoid midday field work",
			},
		})
	}
	return alerts
}
