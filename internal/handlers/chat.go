package handlers

import (
	"errors"
	"net/http"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
	"agri-advisor-backend/internal/simulation"
)

type ChatHandler struct {
	relay *services.ChatRelay
}

func NewChatHandler(relay *services.ChatRelay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Chat relays one farmer question to the model. The body is decoded into a
// typed request, so a missing, non-string or malformed message is rejected
// before any model call.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(services.MsgMessageRequired))
		return
	}

	resp, err := h.relay.Handle(r.Context(), req)
	if err != nil {
		var chatErr *services.ChatError
		if errors.As(err, &chatErr) {
			writeJSON(w, chatErr.Status, errorResp(chatErr.Message()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp(services.MsgGenerationFailed))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) QuickReplies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quickReplies": simulation.QuickReplies(),
	})
}
