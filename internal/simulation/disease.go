package simulation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

type Disease struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	Confidence     int    `json:"confidence"`
	Severity       string `json:"severity"` // "low" | "medium" | "high"
}

type Treatments struct {
	Immediate  []string `json:"immediate"`
	Chemical   []string `json:"chemical"`
	Organic    []string `json:"organic"`
	Prevention []string `json:"prevention"`
}

type DiseaseAnalysis struct {
	Disease        Disease    `json:"disease"`
	AffectedArea   int        `json:"affectedArea"`
	Treatments     Treatments `json:"treatments"`
	AdditionalInfo string     `json:"additionalInfo"`
}

const (
	minConfidence = 75
	maxConfidence = 95
)

var ErrEmptyImage = errors.New("image is empty")

var knownDiseases = []DiseaseAnalysis{
	{
		Disease:      Disease{Name: "Tomato Leaf Blight", ScientificName: "Phytophthora infestans", Confidence: 89, Severity: "high"},
		AffectedArea: 35,
		Treatments: Treatments{
			Immediate: []string{
				"Remove and destroy all infected leaves immediately",
				"Isolate affected plants from healthy ones",
				"Reduce watering and avoid overhead irrigation",
				"Improve air circulation around plants",
			},
			Chemical: []string{
				"Apply copper-based fungicide (Bordeaux mixture)",
				"Use Mancozeb 75% WP @ 2g/liter of water",
				"Spray Metalaxyl + Mancozeb combination",
				"Repeat application every 7-10 days",
			},
			Organic: []string{
				"Neem oil spray (5ml/liter) every 5 days",
				"Garlic extract solution",
				"Baking soda solution (1 tbsp/liter)",
				"Milk spray (1:9 ratio with water)",
			},
			Prevention: []string{
				"Use disease-resistant varieties",
				"Maintain proper plant spacing for air flow",
				"Avoid working with plants when wet",
				"Crop rotation with non-solanaceous plants",
				"Mulch to prevent soil splash",
			},
		},
		AdditionalInfo: "Late blight spreads rapidly in cool, wet conditions. Act quickly to prevent total crop loss. Monitor weather forecasts and spray preventively during high-risk periods.",
	},
	{
		Disease:      Disease{Name: "Wheat Rust", ScientificName: "Puccinia graminis", Confidence: 92, Severity: "medium"},
		AffectedArea: 22,
		Treatments: Treatments{
			Immediate: []string{
				"Scout fields regularly for early detection",
				"Remove volunteer wheat plants",
				"Document affected areas for monitoring",
			},
			Chemical: []string{
				"Apply Propiconazole 25% EC @ 1ml/liter",
				"Use Tebuconazole 50% + Trifloxystrobin 25%",
				"Spray Azoxystrobin 23% SC",
				"Apply at first sign of rust pustules",
			},
			Organic: []string{
				"Sulfur dust application",
				"Garlic-chili extract spray",
				"Wood ash dusting",
			},
			Prevention: []string{
				"Plant rust-resistant varieties",
				"Adjust planting dates to avoid peak rust season",
				"Balanced nitrogen fertilization",
				"Remove alternative rust hosts nearby",
			},
		},
		AdditionalInfo: "Wheat rust can reduce yields by 40-50% if left untreated. Early application of fungicides is crucial for effective control.",
	},
	{
		Disease:      Disease{Name: "Rice Bacterial Leaf Blight", ScientificName: "Xanthomonas oryzae", Confidence: 85, Severity: "high"},
		AffectedArea: 28,
		Treatments: Treatments{
			Immediate: []string{
				"Drain excess water from fields",
				"Remove infected plant debris",
				"Avoid nitrogen fertilizer application",
			},
			Chemical: []string{
				"Copper oxychloride 50% WP @ 3g/liter",
				"Streptocycline 500ppm + Copper oxychloride",
				"Spray Validamycin 3% SL",
			},
			Organic: []string{
				"Pseudomonas fluorescens seed treatment",
				"Azadirachtin-based products",
				"Biocontrol agents",
			},
			Prevention: []string{
				"Use certified disease-free seeds",
				"Avoid deep water and excessive nitrogen",
				"Plant resistant varieties",
				"Maintain balanced fertilization",
			},
		},
		AdditionalInfo: "Bacterial blight is most severe during the monsoon season. Prevent by using resistant varieties and avoiding injury to plants during cultivation.",
	},
}

// DiseaseScanner picks a diagnosis from a fixed catalogue. The choice is
// derived from the image bytes, so re-uploading a photo gives the same answer.
type DiseaseScanner struct{}

func NewDiseaseScanner() *DiseaseScanner {
	return &DiseaseScanner{}
}

func (d *DiseaseScanner) Analyze(ctx context.Context, image []byte) (*DiseaseAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	sum := sha256.Sum256(image)
	rng := NewRand(binary.BigEndian.Uint64(sum[:8]))

	picked := knownDiseases[rng.IntN(len(knownDiseases))]
	variation := rng.IntN(10) - 5

	out := picked
	out.Disease.Confidence = int(clamp(float64(picked.Disease.Confidence+variation), minConfidence, maxConfidence))
	out.Treatments = Treatments{
		Immediate:  append([]string(nil), picked.Treatments.Immediate...),
		Chemical:   append([]string(nil), picked.Treatments.Chemical...),
		Organic:    append([]string(nil), picked.Treatments.Organic...),
		Prevention: append([]string(nil), picked.Treatments.Prevention...),
	}
	return &out, nil
}
