package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"agri-advisor-backend/internal/client"
	"agri-advisor-backend/internal/models"
)

type ChatCommand struct {
	ServerFlags
	Keep int `help:"How many earlier turns to resend with each question." default:"10"`
}

func (c ChatCommand) Run(ctx context.Context) error {
	fmt.Fprintln(os.Stdout, "Ask about crops, pests, weather or prices. Empty line or Ctrl-D quits.")
	return converse(ctx, c.client(), os.Stdin, os.Stdout, c.Keep)
}

type chatter interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

var _ chatter = client.Client{}

// converse reads one question per line and keeps the transcript locally;
// the server holds no conversation state.
func converse(ctx context.Context, c chatter, in io.Reader, out io.Writer, keep int) error {
	var history []models.ChatMessage
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}

		resp, err := c.Chat(ctx, models.ChatRequest{Message: question, ConversationHistory: history})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := printAnswer(out, resp); err != nil {
			return err
		}

		history = append(history,
			models.ChatMessage{Role: models.RoleUser, Content: question},
			models.ChatMessage{Role: models.RoleAssistant, Content: resp.Response},
		)
		if keep >= 0 && len(history) > keep {
			history = history[len(history)-keep:]
		}
	}
}
