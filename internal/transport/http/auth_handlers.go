package http

import (
	"log/slog"
	"net/http"

	"talks/internal/domain"
	"talks/internal/dto"
	"talks/internal/netutil"
	"talks/internal/observability/middleware"

	"github.com/go-chi/chi/v5"
)

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) verifySignup(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.auth.VerifySignup(r.Context(), req)
	if err != nil {
		h.logRejected(r, "signup verification rejected", err)
		writeError(w, r, err)
		return
	}
	h.setSession(w, s)
	writeJSON(w, http.StatusCreated, s.User)
}

func (h *handler) resendSignupCode(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.ResendSignupCode(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.logRejected(r, "login rejected", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) verify2FA(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.auth.Verify2FA(r.Context(), req)
	if err != nil {
		h.logRejected(r, "second factor rejected", err)
		writeError(w, r, err)
		return
	}
	h.setSession(w, s)
	writeJSON(w, http.StatusOK, s.User)
}

func (h *handler) resend2FACode(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.Resend2FACode(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.ForgotPassword(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) validateResetToken(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.ValidateResetToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		// valid is present on every response
		slog.Error("validate reset token", append(middleware.LogAttrs(r.Context()), "error", err)...)
		writeJSON(w, http.StatusInternalServerError, dto.TokenValidityResponse{Valid: false, Message: "Error validating token"})
		return
	}
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.ResetPassword(r.Context(), req)
	if err != nil {
		h.logRejected(r, "password reset rejected", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Logout(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.clearSession(w)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.UpdateProfile(r.Context(), currentUser(r.Context()).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewUserResponse(currentUser(r.Context())))
}

// logRejected records failed credential and code checks with the caller's
// address; other errors are logged by writeError.
func (h *handler) logRejected(r *http.Request, msg string, err error) {
	e, ok := domain.AsError(err)
	if !ok || e.Kind != domain.KindAuth {
		return
	}
	slog.Info(msg, append(middleware.LogAttrs(r.Context()),
		"reason", e.Message,
		"ip", netutil.ClientIP(r),
		"user_agent", netutil.TruncateUserAgent(r.UserAgent()),
	)...)
}
