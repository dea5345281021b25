package handler

import (
	"net/http"

	"github.com/parchly/parchly/internal/model"
)

type ModelsHandler struct{}

func NewModelsHandler() *ModelsHandler {
	return &ModelsHandler{}
}

// List returns the chat models the proxy can serve.
// GET /api/models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ChatModels)
}
