package http

import (
	"log/slog"
	"net/http"
	"strings"

	"talks/internal/dto"
	"talks/internal/observability/middleware"
	"talks/internal/presence"
)

// checkOrigin allows non-browser clients (no Origin header) and the
// configured CORS origins.
func (h *handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.opts.CORSOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// serveWS upgrades an authenticated request to the push channel. A userId
// query parameter, when present, has to name the session's user.
func (h *handler) serveWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Authenticate(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if q := r.URL.Query().Get("userId"); q != "" && !strings.EqualFold(q, user.ID.String()) {
		writeJSON(w, http.StatusForbidden, dto.MessageResponse{Message: "Forbidden - userId does not match session"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		slog.Debug("websocket upgrade failed", append(middleware.LogAttrs(r.Context()), "error", err)...)
		return
	}
	presence.Serve(h.tracker, conn, user.ID)
	slog.Debug("push channel opened", append(middleware.LogAttrs(r.Context()), "user_id", user.ID)...)
}
