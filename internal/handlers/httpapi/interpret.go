package httpapi

import (
	"net/http"

	"github.com/KirkDiggler/narrative-service/internal/services/interpret"
)

type interpretRequest struct {
	Text             string                      `json:"text" validate:"required,max=2000"`
	CharacterContext *interpret.CharacterContext `json:"character_context"`
	WorldContext     *interpret.WorldContext     `json:"world_context"`
}

func (h *Handler) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.interpret.Interpret(r.Context(), &interpret.Input{
		Text:             req.Text,
		CharacterContext: req.CharacterContext,
		WorldContext:     req.WorldContext,
	}, r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
