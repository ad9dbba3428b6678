package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"agri-advisor-backend/internal/client"
	"agri-advisor-backend/internal/models"
)

type ServerFlags struct {
	ServerURL string `help:"The URL of the advisor API." env:"AGRI_SERVER_URL" default:"http://localhost:8080"`
	Token     string `help:"Access token sent as a bearer credential." env:"AGRI_TOKEN" default:""`
}

func (f ServerFlags) client() client.Client {
	return client.New(f.ServerURL, f.Token)
}

type AskCommand struct {
	ServerFlags
	HistoryFile string `help:"JSON file holding earlier turns as [{\"role\":...,\"content\":...}]."`
	Message     string `arg:"" help:"The question to ask."`
}

func (c AskCommand) Run(ctx context.Context) error {
	var history []models.ChatMessage
	if c.HistoryFile != "" {
		data, err := os.ReadFile(c.HistoryFile)
		if err != nil {
			return fmt.Errorf("failed to read history file: %w", err)
		}
		if err := json.Unmarshal(data, &history); err != nil {
			return fmt.Errorf("failed to parse history file: %w", err)
		}
	}

	resp, err := c.client().Chat(ctx, models.ChatRequest{
		Message:             c.Message,
		ConversationHistory: history,
	})
	if err != nil {
		return err
	}
	return printAnswer(os.Stdout, resp)
}

func printAnswer(w io.Writer, resp models.ChatResponse) error {
	_, err := fmt.Fprintln(w, resp.Response)
	return err
}
