package audit

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/correspondence-management/internal"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RepositoryAPI treats a nil userID as "every user". limit <= 0 means no
// limit.
type RepositoryAPI interface {
	PermissionChanges(ctx context.Context, userID *int64) ([]*auditDatamodel.PermissionChange, error)
	LoginLogs(ctx context.Context, userID *int64, limit int) ([]*auditDatamodel.UserLoginLog, error)
}

type Authorizer interface {
	IsAdmin(p *user.Principal) bool
}

type Service struct {
	repo       RepositoryAPI
	authorizer Authorizer
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, authorizer Authorizer, logger *slog.Logger) *Service {
	return &Service{repo: repo, authorizer: authorizer, logger: logger}
}

// PermissionChanges is newest first. Callers are gated by the router.
func (s *Service) PermissionChanges(ctx context.Context, userID *int64) ([]*PermissionChange, error) {
	rows, err := s.repo.PermissionChanges(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load permission changes", "error", err)
		return nil, internal.NewInternalError("failed to load permission changes", err)
	}

	out := make([]*PermissionChange, len(rows))
	for i, row := range rows {
		out[i] = PermissionChangeFromDataModel(row)
	}
	return out, nil
}

// LoginLogs returns the latest entries across all users for admins, or one
// user's history for that user or an admin.
func (s *Service) LoginLogs(ctx context.Context, p *user.Principal, userID *int64) ([]*LoginLog, error) {
	admin := s.authorizer.IsAdmin(p)
	limit := 0
	switch {
	case userID == nil:
		if !admin {
			return nil, ErrLoginLogAccess
		}
		limit = LoginLogLimit
	case *userID != p.ID && !admin:
		s.logger.Warn("login log access denied", "user_id", p.ID, "target_id", *userID)
		return nil, ErrLoginLogAccess
	}

	rows, err := s.repo.LoginLogs(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to load login logs", "error", err)
		return nil, internal.NewInternalError("failed to load login logs", err)
	}

	out := make([]*LoginLog, len(rows))
	for i, row := range rows {
		out[i] = LoginLogFromDataModel(row)
	}
	return out, nil
}
