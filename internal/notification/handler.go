package notification

import (
	"context"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, userID int64, page int) (*Page, error)
	Recent(ctx context.Context, userID int64) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	page, err := h.Service.List(r.Context(), p.ID, h.QueryInt(r, "page", 1))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	items, err := h.Service.Recent(r.Context(), p.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": items})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), p.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.MarkRead(r.Context(), id, p.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	updated, err := h.Service.MarkAllRead(r.Context(), p.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": updated})
}
