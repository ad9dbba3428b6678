package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityDisease    = "disease"
	ActivityWeather    = "weather"
	ActivityMarket     = "market"
	ActivityFertilizer = "fertilizer"
)

// Activity is one row of a farmer's report history.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Result      *string   `json:"result"`
	CreatedAt   time.Time `json:"created_at"`
}

func ValidActivityType(t string) bool {
	switch t {
	case ActivityDisease, ActivityWeather, ActivityMarket, ActivityFertilizer:
		return true
	}
	return false
}
