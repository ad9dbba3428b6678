package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	SoilLoamy = "Loamy"
	SoilClay  = "Clay"
	SoilSandy = "Sandy"
	SoilSilt  = "Silt"
)

type SoilData struct {
	SoilType string  `json:"soilType"`
	PH       float64 `json:"pH"`
	Crop     string  `json:"crop"`
}

// NPKLevels are availability scores on a 0-100 scale.
type NPKLevels struct {
	Nitrogen   int `json:"nitrogen"`
	Phosphorus int `json:"phosphorus"`
	Potassium  int `json:"potassium"`
}

const (
	NutrientDeficient = "deficient"
	NutrientAdequate  = "adequate"
	NutrientExcess    = "excess"
)

type NPKStatus struct {
	Nitrogen   string `json:"nitrogen"`
	Phosphorus string `json:"phosphorus"`
	Potassium  string `json:"potassium"`
}

type FertilizerProduct struct {
	Name string `json:"name"`
	NPK  string `json:"npk"`
	// Price is rupees per kg.
	Price           int    `json:"price"`
	ApplicationRate string `json:"applicationRate"`
	Brand           string `json:"brand"`
	rateKg          int
}

type Recommendations struct {
	Primary []string `json:"primary"`
	Timing  []string `json:"timing"`
	Organic []string `json:"organic"`
}

type FertilizerRecommendation struct {
	NPKLevels       NPKLevels           `json:"npkLevels"`
	NPKStatus       NPKStatus           `json:"npkStatus"`
	Recommendations Recommendations     `json:"recommendations"`
	Products        []FertilizerProduct `json:"products"`
	// TotalCost is rupees per hectare.
	TotalCost int `json:"totalCost"`
}

type npk struct{ n, p, k float64 }

var cropRequirements = map[string]npk{
	"wheat":     {120, 60, 40},
	"rice":      {80, 40, 40},
	"maize":     {120, 60, 40},
	"tomato":    {120, 80, 60},
	"potato":    {150, 75, 125},
	"cotton":    {120, 60, 60},
	"sugarcane": {200, 60, 80},
	"onion":     {100, 50, 50},
	"cabbage":   {150, 75, 75},
}

var fertilizerCatalog = []FertilizerProduct{
	{Name: "Urea", NPK: "46-0-0", Price: 6, ApplicationRate: "260 kg", Brand: "IFFCO", rateKg: 260},
	{Name: "DAP", NPK: "18-46-0", Price: 27, ApplicationRate: "130 kg", Brand: "IFFCO", rateKg: 130},
	{Name: "MOP", NPK: "0-0-60", Price: 17, ApplicationRate: "65 kg", Brand: "IPL", rateKg: 65},
	{Name: "NPK Complex", NPK: "20-20-20", Price: 22, ApplicationRate: "200 kg", Brand: "Coromandel", rateKg: 200},
	{Name: "SSP", NPK: "0-16-0", Price: 5, ApplicationRate: "375 kg", Brand: "Tata", rateKg: 375},
}

const (
	deficientBelow = 40
	excessAbove    = 70
)

var ErrInvalidSoil = errors.New("invalid soil data")

// ValidateSoil reports field-level problems with a soil sample.
func ValidateSoil(s SoilData) map[string]string {
	fields := make(map[string]string)
	switch s.SoilType {
	case SoilLoamy, SoilClay, SoilSandy, SoilSilt:
	default:
		fields["soilType"] = "Soil type must be one of Loamy, Clay, Sandy, Silt"
	}
	if s.PH < 0 || s.PH > 14 {
		fields["pH"] = "pH must be between 0 and 14"
	}
	if strings.TrimSpace(s.Crop) == "" {
		fields["crop"] = "Crop is required"
	}
	return fields
}

// Fertilizer estimates nutrient availability from soil type and pH and
// picks products that cover the deficiencies.
type Fertilizer struct{}

func NewFertilizer() *Fertilizer {
	return &Fertilizer{}
}

func (f *Fertilizer) Recommend(ctx context.Context, soil SoilData) (*FertilizerRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fields := ValidateSoil(soil); len(fields) > 0 {
		return nil, ErrInvalidSoil
	}

	levels := npkLevels(soil)
	status := NPKStatus{
		Nitrogen:   nutrientStatus(levels.Nitrogen),
		Phosphorus: nutrientStatus(levels.Phosphorus),
		Potassium:  nutrientStatus(levels.Potassium),
	}

	req, ok := cropRequirements[strings.ToLower(strings.TrimSpace(soil.Crop))]
	if !ok {
		req = cropRequirements["wheat"]
	}

	recs := Recommendations{
		Primary: primaryRecommendations(status, req),
		Timing: []string{
			"Basal application: 2-3 days before sowing",
			"First top-dressing: 20-25 days after sowing",
			"Second top-dressing: At flowering/grain formation",
			"Irrigate immediately after each application",
		},
		Organic: []string{
			"Farmyard Manure (FYM): 10-15 tons/hectare before sowing",
			"Vermicompost: 5 tons/hectare as basal dose",
			"Green manure: Grow Dhaincha/Sunhemp and incorporate before flowering",
			"Neem cake: 250 kg/hectare for pest control + nutrients",
		},
	}

	products := selectProducts(status)
	total := 0
	for _, p := range products {
		total += p.rateKg * p.Price
	}

	return &FertilizerRecommendation{
		NPKLevels:       levels,
		NPKStatus:       status,
		Recommendations: recs,
		Products:        products,
		TotalCost:       total,
	}, nil
}

func npkLevels(soil SoilData) NPKLevels {
	var base npk
	switch soil.SoilType {
	case SoilLoamy:
		base = npk{60, 50, 55}
	case SoilClay:
		base = npk{50, 60, 50}
	case SoilSandy:
		base = npk{40, 30, 30}
	default:
		base = npk{40, 30, 50}
	}

	// Availability drops as pH moves away from neutral.
	phFactor := math.Abs(7-soil.PH) / 3

	return NPKLevels{
		Nitrogen:   round(clamp(base.n-phFactor*15, 20, 80)),
		Phosphorus: round(clamp(base.p-phFactor*10, 20, 80)),
		Potassium:  round(clamp(base.k-phFactor*10, 20, 80)),
	}
}

func nutrientStatus(level int) string {
	switch {
	case level < deficientBelow:
		return NutrientDeficient
	case level > excessAbove:
		return NutrientExcess
	default:
		return NutrientAdequate
	}
}

func primaryRecommendations(status NPKStatus, req npk) []string {
	primary := []string{}

	switch status.Nitrogen {
	case NutrientDeficient:
		primary = append(primary,
			fmt.Sprintf("Apply Urea @ %d kg/hectare for Nitrogen", round(req.n*0.6)),
			"Split nitrogen application: 50% basal, 25% at tillering, 25% at flowering",
		)
	case NutrientAdequate:
		primary = append(primary, fmt.Sprintf("Apply Urea @ %d kg/hectare for maintenance", round(req.n*0.4)))
	}

	if status.Phosphorus == NutrientDeficient {
		primary = append(primary,
			fmt.Sprintf("Apply DAP @ %d kg/hectare for Phosphorus", round(req.p*1.2)),
			"Apply full phosphorus dose at sowing time",
		)
	}

	if status.Potassium == NutrientDeficient {
		primary = append(primary, fmt.Sprintf("Apply MOP @ %d kg/hectare for Potassium", round(req.k*1.3)))
	}

	return primary
}

// selectProducts matches on the N-P-K grade string, so DAP also qualifies
// when nitrogen is short and Urea when phosphorus is.
func selectProducts(status NPKStatus) []FertilizerProduct {
	out := []FertilizerProduct{}
	for _, p := range fertilizerCatalog {
		if (status.Nitrogen == NutrientDeficient && strings.HasPrefix(p.NPK, "46")) ||
			(status.Phosphorus == NutrientDeficient && strings.Contains(p.NPK, "46")) ||
			(status.Potassium == NutrientDeficient && strings.HasSuffix(p.NPK, "60")) ||
			p.NPK == "20-20-20" {
			out = append(out, p)
		}
	}
	return out
}
