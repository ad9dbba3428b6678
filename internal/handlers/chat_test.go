package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
)

type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	systems []string
	text    string
	err     error
}

func (g *recordingGenerator) Generate(_ context.Context, systemInstruction, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, systemInstruction)
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func postChat(t *testing.T, gen services.Generator, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewChatHandler(services.NewChatRelay(gen, services.ChatOptions{Timeout: time.Second}))
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error
}

func TestChatRejectsMissingMessage(t *testing.T) {
	bodies := map[string]string{
		"empty string":    `{"message":""}`,
		"whitespace only": `{"message":"   \n\t"}`,
		"missing field":   `{"conversationHistory":[]}`,
		"null":            `{"message":null}`,
		"not a string":    `{"message":42}`,
		"invalid json":    `{"message":`,
		"empty body":      ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			gen := &recordingGenerator{text: "unused"}
			rr := postChat(t, gen, body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "Message is required", decodeError(t, rr))
			assert.Zero(t, gen.calls())
		})
	}
}

func TestChatWithoutHistorySendsSingleTurnPrompt(t *testing.T) {
	gen := &recordingGenerator{text: "Use neem oil spray every 7 days."}
	start := time.Now().Add(-time.Second)

	rr := postChat(t, gen, `{"message":"How do I control pests in wheat?"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Equal(t, 1, gen.calls())
	assert.Equal(t, "Farmer: How do I control pests in wheat?", gen.prompts[0])
	assert.Equal(t, services.SystemInstruction, gen.systems[0])

	var resp struct {
		Response  string `json:"response"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Use neem oil spray every 7 days.", resp.Response)

	ts, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	require.NoError(t, err)
	assert.False(t, ts.Before(start))
}

func TestChatResponseIsUnmodified(t *testing.T) {
	text := "  **Tip:** water at dawn.\n\n- line two  \n"
	gen := &recordingGenerator{text: text}

	rr := postChat(t, gen, `{"message":"When should I irrigate?"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, text, resp.Response)
}

func TestChatKeepsLastFiveHistoryEntries(t *testing.T) {
	history := make([]models.ChatMessage, 0, 8)
	for i := 0; i < 8; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, models.ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	body, err := json.Marshal(models.ChatRequest{Message: "next?", ConversationHistory: history})
	require.NoError(t, err)

	gen := &recordingGenerator{text: "ok"}
	rr := postChat(t, gen, string(body))
	require.Equal(t, http.StatusOK, rr.Code)

	want := strings.Join([]string{
		"Advisor: m3",
		"Farmer: m4",
		"Advisor: m5",
		"Farmer: m6",
		"Advisor: m7",
		"Farmer: next?",
	}, "\n")
	assert.Equal(t, want, gen.prompts[0])
}

func TestChatMapsGeneratorFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		text    string
		wantMsg string
	}{
		{"missing key", services.ErrMissingAPIKey, "", "Invalid API key configuration"},
		{"invalid key", errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key."), "", "Invalid API key configuration"},
		{"provider sentinel", errors.New("rpc error: API_KEY_INVALID"), "", "Invalid API key configuration"},
		{"rate limited", errors.New("googleapi: Error 429: quota exceeded"), "", "Failed to generate response. Please try again."},
		{"network", errors.New("dial tcp: connection refused"), "", "Failed to generate response. Please try again."},
		{"blocked", nil, "", "Failed to generate response. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{text: tt.text, err: tt.err}
			rr := postChat(t, gen, `{"message":"Which fertilizer for rice?"}`)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			msg := decodeError(t, rr)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.err != nil {
				assert.NotContains(t, msg, tt.err.Error())
			}
		})
	}
}

func TestQuickReplies(t *testing.T) {
	h := NewChatHandler(nil)
	rr := httptest.NewRecorder()
	h.QuickReplies(rr, httptest.NewRequest(http.MethodGet, "/api/chat/quick-replies", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		QuickReplies []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"quickReplies"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.NotEmpty(t, body.QuickReplies)
}
