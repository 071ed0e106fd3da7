package httpapi

import (
	"net/http"
	"time"
)

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "login is not configured"})
		return
	}

	var req googleLoginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.auth.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "login is not configured"})
		return
	}

	claims, err := h.auth.VerifySession(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := sessionResponse{SessionID: claims.SessionID, UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}
