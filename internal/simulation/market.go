package simulation

import (
	"context"
	"sort"
)

type CropPrice struct {
	ID       string `json:"id"`
	Crop     string `json:"crop"`
	Category string `json:"category"` // "Grains" | "Vegetables" | "Fruits"
	Market   string `json:"market"`
	// Price is rupees per quintal.
	Price   int     `json:"price"`
	Change  float64 `json:"change"`
	History []int   `json:"history"`
}

type PricePrediction struct {
	Crop           string `json:"crop"`
	CurrentPrice   int    `json:"currentPrice"`
	PredictedPrice int    `json:"predictedPrice"`
	Confidence     int    `json:"confidence"`
	Timeframe      string `json:"timeframe"`
}

type MarketData struct {
	Prices        []CropPrice     `json:"prices"`
	TopGainers    []CropPrice     `json:"topGainers"`
	TopLosers     []CropPrice     `json:"topLosers"`
	AverageChange float64         `json:"averageChange"`
	Prediction    PricePrediction `json:"prediction"`
}

type cropListing struct {
	id, crop, category, market string
	basePrice                  float64
}

var cropListings = []cropListing{
	{"1", "Wheat", "Grains", "APMC Pune", 2100},
	{"2", "Rice (Basmati)", "Grains", "APMC Delhi", 3500},
	{"3", "Maize", "Grains", "APMC Hyderabad", 1800},
	{"4", "Cotton", "Grains", "APMC Ahmedabad", 6000},
	{"5", "Soybean", "Grains", "APMC Indore", 4200},
	{"6", "Tomato", "Vegetables", "APMC Bangalore", 1200},
	{"7", "Onion", "Vegetables", "APMC Nashik", 2500},
	{"8", "Potato", "Vegetables", "APMC Agra", 1500},
	{"9", "Cabbage", "Vegetables", "APMC Pune", 800},
	{"10", "Cauliflower", "Vegetables", "APMC Delhi", 1000},
	{"11", "Mango", "Fruits", "APMC Mumbai", 3000},
	{"12", "Banana", "Fruits", "APMC Chennai", 2000},
	{"13", "Apple", "Fruits", "APMC Shimla", 8000},
	{"14", "Grapes", "Fruits", "APMC Nashik", 4500},
	{"15", "Pomegranate", "Fruits", "APMC Solapur", 5000},
}

const (
	historyDays         = 7
	moversCount         = 3
	predictionThreshold = 2000
)

// Market walks each crop's price randomly over the last week.
type Market struct {
	rng *Rand
}

func NewMarket(rng *Rand) *Market {
	return &Market{rng: rng}
}

func (m *Market) Prices(ctx context.Context) (*MarketData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prices := make([]CropPrice, 0, len(cropListings))
	for _, l := range cropListings {
		history := m.history(l.basePrice)
		current := history[len(history)-1]
		previous := history[len(history)-2]
		change := float64(current-previous) / float64(previous) * 100

		prices = append(prices, CropPrice{
			ID:       l.id,
			Crop:     l.crop,
			Category: l.category,
			Market:   l.market,
			Price:    current,
			Change:   round1(change),
			History:  history,
		})
	}

	sorted := make([]CropPrice, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Change > sorted[j].Change })

	gainers := append([]CropPrice(nil), sorted[:moversCount]...)
	losers := make([]CropPrice, 0, moversCount)
	for i := len(sorted) - 1; i >= len(sorted)-moversCount; i-- {
		losers = append(losers, sorted[i])
	}

	total := 0.0
	for _, p := range prices {
		total += p.Change
	}

	return &MarketData{
		Prices:        prices,
		TopGainers:    gainers,
		TopLosers:     losers,
		AverageChange: round1(total / float64(len(prices))),
		Prediction:    m.predict(prices),
	}, nil
}

// history applies up to ±5% daily drift starting from the base price.
func (m *Market) history(basePrice float64) []int {
	history := make([]int, 0, historyDays)
	price := basePrice
	for i := 0; i < historyDays; i++ {
		price *= 1 + (m.rng.Float64()-0.5)*0.1
		history = append(history, round(price))
	}
	return history
}

func (m *Market) predict(prices []CropPrice) PricePrediction {
	var candidates []CropPrice
	for _, p := range prices {
		if p.Price > predictionThreshold {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		candidates = prices
	}

	pick := candidates[m.rng.IntN(len(candidates))]
	// Slight upward bias.
	predictedChange := (m.rng.Float64() - 0.3) * 0.15

	return PricePrediction{
		Crop:           pick.Crop,
		CurrentPrice:   pick.Price,
		PredictedPrice: round(float64(pick.Price) * (1 + predictedChange)),
		Confidence:     75 + round(m.rng.Float64()*15),
		Timeframe:      "next 7 days",
	}
}
