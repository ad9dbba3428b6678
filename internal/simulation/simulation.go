// Package simulation holds the stand-in data sources behind the weather,
// market, fertilizer, and disease screens. None of them call a real service;
// each sits behind an interface so a live source can replace it without
// touching the HTTP layer.
package simulation

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

type WeatherSource interface {
	Forecast(ctx context.Context, location string) (*WeatherData, error)
}

type MarketSource interface {
	Prices(ctx context.Context) (*MarketData, error)
}

type FertilizerAdvisor interface {
	Recommend(ctx context.Context, soil SoilData) (*FertilizerRecommendation, error)
}

type DiseaseDetector interface {
	Analyze(ctx context.Context, image []byte) (*DiseaseAnalysis, error)
}

// Rand is a goroutine-safe wrapper over math/rand/v2.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func NewTimeSeededRand() *Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

func round(x float64) int {
	return int(math.Round(x))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
