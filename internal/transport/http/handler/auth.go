package handler

import (
	"log/slog"
	"net/http"

	"github.com/enthub-api/internal/application/auth"
	"github.com/enthub-api/internal/application/functions"
)

// AuthHandler serves the passwordless login endpoints.
type AuthHandler struct {
	svc    auth.Service
	tokens functions.TokenSigner
}

// NewAuthHandler builds the handler. tokens may be nil, in which case verify
// returns the identity without a session token.
func NewAuthHandler(svc auth.Service, tokens functions.TokenSigner) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens}
}

type issueCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

func (h *AuthHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.IssueCode(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, functions.IssueResult{Success: true})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.svc.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := functions.VerifyResult{UserID: res.UserID, Email: res.Email, Created: res.Created}
	if h.tokens != nil {
		tok, err := h.tokens.Sign(res.UserID, res.Email)
		if err != nil {
			slog.Error("sign session token", "user_id", res.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		out.Token = tok
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}
