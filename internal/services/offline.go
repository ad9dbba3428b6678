package services

import (
	"context"
	"fmt"
	"strings"

	"agri-advisor-backend/internal/config"
	"agri-advisor-backend/internal/simulation"
)

// OfflineGenerator answers from the keyword advisor. It never calls out and
// is meant for demos and local development.
type OfflineGenerator struct {
	advisor *simulation.KeywordAdvisor
}

func NewOfflineGenerator() *OfflineGenerator {
	return &OfflineGenerator{advisor: simulation.NewKeywordAdvisor()}
}

// Generate answers the last "Farmer:" line of the prompt.
func (o *OfflineGenerator) Generate(ctx context.Context, _ string, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	question := prompt
	if i := strings.LastIndex(prompt, "Farmer: "); i >= 0 {
		question = prompt[i+len("Farmer: "):]
	}
	return o.advisor.Reply(question), nil
}

// NewGenerator builds the backend named by cfg.ChatBackend. The returned
// close func releases client resources and is never nil.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, func(), error) {
	switch cfg.ChatBackend {
	case "", config.ChatBackendGemini:
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { g.Close() }, nil
	case config.ChatBackendVertex:
		v, err := NewVertexGenerator(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return v, func() {}, nil
	case config.ChatBackendSimulation:
		return NewOfflineGenerator(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown chat backend %q", cfg.ChatBackend)
	}
}
