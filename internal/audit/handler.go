package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

type ServiceAPI interface {
	PermissionChanges(ctx context.Context, userID *int64) ([]*PermissionChange, error)
	LoginLogs(ctx context.Context, p *user.Principal, userID *int64) ([]*LoginLog, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) PermissionChanges(w http.ResponseWriter, r *http.Request) {
	h.permissionChanges(w, r, nil)
}

func (h *Handler) UserPermissionChanges(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.permissionChanges(w, r, &id)
}

func (h *Handler) permissionChanges(w http.ResponseWriter, r *http.Request, userID *int64) {
	changes, err := h.Service.PermissionChanges(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"changes": changes})
}

func (h *Handler) LoginLogs(w http.ResponseWriter, r *http.Request) {
	h.loginLogs(w, r, nil)
}

func (h *Handler) UserLoginLogs(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.loginLogs(w, r, &id)
}

func (h *Handler) loginLogs(w http.ResponseWriter, r *http.Request, userID *int64) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	logs, err := h.Service.LoginLogs(r.Context(), p, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}
