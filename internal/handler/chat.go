package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/parchly/parchly/internal/service"
)

// Replay pacing for cached answers: the client expects a stream, so a
// full cached response is chunked back out instead of arriving at once.
const (
	streamChunkSize = 100
	streamDelay     = 50 * time.Millisecond
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Messages []service.ChatMessage `json:"messages"`
}

// Chat proxies a conversation to the upstream prediction endpoint and
// streams the answer back.
// POST /api/chat, header X-Api-Key carries the caller's upstream key.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	text, cached, err := h.chatService.Answer(r.Context(), r.Header.Get("X-Api-Key"), req.Messages)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	slog.Debug("chat answer resolved", "cached", cached, "length", len(text))
	streamText(w, text)
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrMissingChatAPIKey) {
		writeError(w, http.StatusBadRequest, "Chat API Key not found. Please set it in your profile settings.")
		return
	}

	var upstreamErr *service.ChatUpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Status == http.StatusUnauthorized {
		writeError(w, http.StatusUnauthorized, "Chat API Key is incorrect. Please fix it in your profile settings.")
		return
	}

	slog.Error("chat proxy failed", "error", err)
	writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
}

// streamText replays a full answer as a paced chunked stream.
func streamText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, canFlush := w.(http.Flusher)

	for position := 0; position < len(text); position += streamChunkSize {
		end := position + streamChunkSize
		if end > len(text) {
			end = len(text)
		}

		_, err := w.Write([]byte(text[position:end]))
		if err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}

		if end < len(text) {
			time.Sleep(streamDelay)
		}
	}
}
