package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// VertexGenerator reaches Gemini through Vertex AI using application default
// credentials instead of an API key.
type VertexGenerator struct {
	client    *genai.Client
	modelName string
}

func NewVertexGenerator(ctx context.Context, project, location, modelName string) (*VertexGenerator, error) {
	if project == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the vertex chat backend")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexGenerator{client: client, modelName: modelName}, nil
}

func (v *VertexGenerator) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	result, err := v.client.Models.GenerateContent(
		ctx,
		v.modelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		},
	)
	if err != nil {
		return "", fmt.Errorf("Vertex AI error: %w", err)
	}
	return result.Text(), nil
}
