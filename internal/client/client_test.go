package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

func newServer(t *testing.T) (*httptest.Server, *[]models.ChatRequest, *[]string) {
	t.Helper()
	var got []models.ChatRequest
	var auth []string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Message is required"})
			return
		}
		got = append(got, req)
		json.NewEncoder(w).Encode(models.ChatResponse{
			Response:  "Sow after the first monsoon rain.",
			Timestamp: time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC),
		})
	})
	mux.HandleFunc("GET /api/chat/quick-replies", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"quickReplies": simulation.QuickReplies()})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &got, &auth
}

func TestChat(t *testing.T) {
	srv, got, auth := newServer(t)
	c := New(srv.URL, "tok")

	history := []models.ChatMessage{{Role: models.RoleUser, Content: "Hi"}, {Role: models.RoleAssistant, Content: "Hello"}}
	resp, err := c.Chat(context.Background(), models.ChatRequest{Message: "When to sow soybean?", ConversationHistory: history})
	require.NoError(t, err)

	assert.Equal(t, "Sow after the first monsoon rain.", resp.Response)
	require.Len(t, *got, 1)
	assert.Equal(t, history, (*got)[0].ConversationHistory)
	assert.Equal(t, []string{"Bearer tok"}, *auth)
}

func TestChatReturnsServerError(t *testing.T) {
	srv, _, _ := newServer(t)
	c := New(srv.URL, "")

	_, err := c.Chat(context.Background(), models.ChatRequest{})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Message is required", apiErr.Message)
}

func TestQuickRepliesAndHealth(t *testing.T) {
	srv, _, _ := newServer(t)
	c := New(srv.URL, "")

	replies, err := c.QuickReplies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, simulation.QuickReplies(), replies)

	assert.NoError(t, c.Health(context.Background()))
}

func TestGetMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := New(srv.URL, "").Health(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not Found", apiErr.Message)
}
