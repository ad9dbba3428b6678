package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"agri-advisor-backend/internal/logger"
)

type CLI struct {
	Ask          AskCommand          `cmd:"ask" help:"Ask the advisor a single question."`
	Chat         ChatCommand         `cmd:"chat" help:"Hold a conversation with the advisor."`
	QuickReplies QuickRepliesCommand `cmd:"quick-replies" help:"List the suggested starter questions."`
	Version      VersionCommand      `cmd:"version" help:"Print the version of agrictl."`
}

func main() {
	var cli CLI
	ctx := context.Background()
	kctx := kong.Parse(&cli,
		kong.Name("agrictl"),
		kong.Description("Command-line client for the agri-advisor API."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		logger.Init("error")
		logger.ErrorWithFields("error", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
