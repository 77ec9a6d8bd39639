package http

import (
	"net/http"
	"strings"

	"talks/internal/domain"
	"talks/internal/dto"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func peerID(r *http.Request) (domain.UserID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "peerId")))
	if err != nil {
		return domain.UserID{}, domain.ErrInvalidID
	}
	return id, nil
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.messages.Contacts(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	peer, err := peerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := h.messages.History(r.Context(), currentUser(r.Context()).ID, peer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	peer, err := peerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.messages.Send(r.Context(), currentUser(r.Context()).ID, peer, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	peer, err := peerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.messages.MarkRead(r.Context(), currentUser(r.Context()).ID, peer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
