package audit

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
)

// LoginLogLimit caps the unfiltered login log view.
const LoginLogLimit = 100

type PermissionChange struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	ChangedByID int64     `json:"changed_by_id"`
	ChangedBy   string    `json:"changed_by,omitempty"`
	ChangeType  string    `json:"change_type"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
	RoleID      *int64    `json:"role_id,omitempty"`
}

type LoginLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	LoginAt   time.Time `json:"login_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Status    string    `json:"status"`
}

func PermissionChangeFromDataModel(c *auditDatamodel.PermissionChange) *PermissionChange {
	out := &PermissionChange{
		ID:          c.ID,
		UserID:      c.UserID,
		ChangedByID: c.ChangedByID,
		ChangeType:  c.ChangeType,
		OldValue:    c.OldValue,
		NewValue:    c.NewValue,
		Notes:       c.Notes,
		ChangedAt:   c.ChangedAt,
		RoleID:      c.RoleID,
	}
	if c.User != nil {
		out.Username = c.User.Username
	}
	if c.ChangedBy != nil {
		out.ChangedBy = c.ChangedBy.Username
	}
	return out
}

func LoginLogFromDataModel(l *auditDatamodel.UserLoginLog) *LoginLog {
	out := &LoginLog{
		ID:        l.ID,
		UserID:    l.UserID,
		LoginAt:   l.LoginAt,
		IPAddress: l.IPAddress,
		UserAgent: l.UserAgent,
		Status:    l.Status,
	}
	if l.User != nil {
		out.Username = l.User.Username
	}
	return out
}

var ErrLoginLogAccess = internal.NewForbiddenError("Not allowed to view these login logs", internal.ErrCodeInsufficientPermissions)
