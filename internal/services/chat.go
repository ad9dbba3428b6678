package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
)

// SystemInstruction scopes the model to advising Indian farmers.
const SystemInstruction = `You are an expert agricultural advisor specifically for Indian farmers. Your role is to provide practical, actionable farming advice.

Key responsibilities:
- Provide crop-specific guidance for Indian climate and soil conditions
- Offer pest and disease management solutions using both organic and chemical methods
- Give irrigation and water management advice
- Suggest fertilizer recommendations based on soil conditions
- Provide market insights and selling strategies
- Offer seasonal planting calendars
- Share weather-related farming tips
- Recommend government schemes and subsidies for farmers

Important guidelines:
- Always provide practical, implementable advice
- Consider Indian farming context (monsoons, local crops, regional practices)
- Suggest both traditional and modern farming techniques
- Be concise but thorough
- Use simple language that farmers can understand
- Recommend cost-effective solutions
- Prioritize sustainable and eco-friendly practices when possible
- Reference Indian crops: wheat, rice, cotton, sugarcane, pulses, vegetables, etc.

When asked about:
- Diseases: Identify symptoms, suggest treatments, and preventive measures
- Weather: Provide farming actions based on weather conditions
- Markets: Give guidance on best selling times and price trends
- Fertilizers: Recommend NPK ratios and organic alternatives
- Irrigation: Advise on water schedules and methods`

// Generator turns a system instruction and a prompt into a text completion.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

var (
	// ErrMissingAPIKey is returned by generators built without a credential.
	ErrMissingAPIKey = errors.New("API key not configured")
	// ErrEmptyCompletion means the model answered with no text, usually a safety block.
	ErrEmptyCompletion = errors.New("model returned an empty response")
)

type ChatErrorKind string

const (
	ChatInvalidRequest  ChatErrorKind = "invalid_request"
	ChatAuthConfigError ChatErrorKind = "auth_config_error"
	ChatUpstreamError   ChatErrorKind = "upstream_error"
)

// User-facing messages. The underlying error is logged, never returned.
const (
	MsgMessageRequired  = "Message is required"
	MsgInvalidAPIKey    = "Invalid API key configuration"
	MsgGenerationFailed = "Failed to generate response. Please try again."
)

type ChatError struct {
	Kind   ChatErrorKind
	Status int
	Err    error
}

func (e *ChatError) Error() string {
	return e.Message()
}

func (e *ChatError) Unwrap() error { return e.Err }

// Message is the text safe to show the caller.
func (e *ChatError) Message() string {
	switch e.Kind {
	case ChatInvalidRequest:
		return MsgMessageRequired
	case ChatAuthConfigError:
		return MsgInvalidAPIKey
	default:
		return MsgGenerationFailed
	}
}

func NewInvalidChatRequest(err error) *ChatError {
	return &ChatError{Kind: ChatInvalidRequest, Status: http.StatusBadRequest, Err: err}
}

// ClassifyGenerationError maps a failed model call onto the relay's taxonomy.
func ClassifyGenerationError(err error) *ChatError {
	if isCredentialError(err) {
		return &ChatError{Kind: ChatAuthConfigError, Status: http.StatusInternalServerError, Err: err}
	}
	return &ChatError{Kind: ChatUpstreamError, Status: http.StatusInternalServerError, Err: err}
}

func isCredentialError(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key_invalid")
}

type ChatOptions struct {
	Timeout       time.Duration
	HistoryWindow int
	MaxConcurrent int
}

// ChatRelay forwards one farmer question per call to a Generator. It keeps
// no conversation state; callers resend recent history every turn.
type ChatRelay struct {
	gen           Generator
	timeout       time.Duration
	historyWindow int
	slots         chan struct{}
	now           func() time.Time
}

func NewChatRelay(gen Generator, opts ChatOptions) *ChatRelay {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 5
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 5
	}

	slots := make(chan struct{}, opts.MaxConcurrent)
	for i := 0; i < opts.MaxConcurrent; i++ {
		slots <- struct{}{}
	}

	return &ChatRelay{
		gen:           gen,
		timeout:       opts.Timeout,
		historyWindow: opts.HistoryWindow,
		slots:         slots,
		now:           time.Now,
	}
}

// Handle validates the request, calls the model once, and returns either a
// response or a *ChatError.
func (r *ChatRelay) Handle(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, NewInvalidChatRequest(errors.New("message is empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := BuildPrompt(req.Message, req.ConversationHistory, r.historyWindow)

	text, err := r.generate(ctx, prompt)
	if err != nil {
		chatErr := ClassifyGenerationError(err)
		logger.ErrorWithFields("chat generation failed", logger.Fields{
			"kind":        string(chatErr.Kind),
			"error":       err.Error(),
			"history_len": len(req.ConversationHistory),
		})
		return nil, chatErr
	}

	return &models.ChatResponse{
		Response:  text,
		Timestamp: r.now().UTC(),
	}, nil
}

func (r *ChatRelay) generate(ctx context.Context, prompt string) (string, error) {
	if err := r.acquireSlot(ctx); err != nil {
		return "", err
	}
	defer r.releaseSlot()

	text, err := r.gen.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// acquireSlot blocks until a model call slot is free or ctx ends.
func (r *ChatRelay) acquireSlot(ctx context.Context) error {
	select {
	case <-r.slots:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for model slot: %w", ctx.Err())
	}
}

func (r *ChatRelay) releaseSlot() {
	r.slots <- struct{}{}
}

// BuildPrompt folds the last window history entries and the new message into
// one prompt, oldest first.
func BuildPrompt(message string, history []models.ChatMessage, window int) string {
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var b strings.Builder
	for _, msg := range history {
		speaker := "Advisor"
		if msg.Role == models.RoleUser {
			speaker = "Farmer"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Farmer: ")
	b.WriteString(message)
	return b.String()
}
