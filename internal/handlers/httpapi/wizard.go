package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/services/wizard"
)

type stepRequest struct {
	SessionID string         `json:"session_id" validate:"omitempty,max=128"`
	StepID    string         `json:"step_id" validate:"omitempty,oneof=race archetype profession_preview name summary"`
	Intent    string         `json:"intent" validate:"required,oneof=assist select lock regenerate start_over"`
	Message   string         `json:"message" validate:"max=2000"`
	Selection any            `json:"selection"`
	Context   map[string]any `json:"context"`
}

type finalizeRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

type okResponse struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
}

func (h *Handler) handleWizardStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.wizard.Step(r.Context(), &wizard.StepInput{
		SessionID: req.SessionID,
		StepID:    req.StepID,
		Action:    req.Intent,
		Message:   req.Message,
		Selection: req.Selection,
		Context:   req.Context,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !result.OK {
		fields := []zap.Field{zap.String("error", result.Error)}
		if result.Result != nil {
			fields = append(fields,
				zap.String("session_id", result.Result.SessionID),
				zap.String("step_id", string(result.Result.StepID)))
		}
		h.logger.Warn("wizard step generation failed", fields...)
		writeJSON(w, http.StatusBadGateway, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleWizardSession(w http.ResponseWriter, r *http.Request) {
	payload, err := h.wizard.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true, Result: payload})
}

func (h *Handler) handleWizardFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.wizard.Finalize(r.Context(), req.SessionID, r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true, Result: result})
}
