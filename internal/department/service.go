package department

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/correspondence-management/internal"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

// RepositoryAPI returns nil, nil from lookups that find nothing.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.Department, error)
	GetByName(ctx context.Context, name string) (*userDatamodel.Department, error)
	UserCounts(ctx context.Context) (map[int64]int64, error)
	Create(ctx context.Context, d *userDatamodel.Department) error
	Update(ctx context.Context, d *userDatamodel.Department) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, internal.NewInternalError("failed to load departments", err)
	}

	counts, err := s.repo.UserCounts(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to count department users", err)
	}

	out := make([]*Department, len(rows))
	for i, row := range rows {
		out[i] = FromDataModel(row)
		out[i].UserCount = counts[row.ID]
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, id int64) (*userDatamodel.Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load department", err)
	}
	if d == nil {
		return nil, ErrDepartmentNotFound
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(d), nil
}

// nameTaken ignores the department being renamed.
func (s *Service) nameTaken(ctx context.Context, name string, selfID int64) (bool, error) {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return false, internal.NewInternalError("failed to check department name", err)
	}
	return existing != nil && existing.ID != selfID, nil
}

func (s *Service) Create(ctx context.Context, dto DepartmentDTO) (*Department, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.nameTaken(ctx, dto.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDepartmentExists
	}

	row := ToDataModel(NewDepartment(dto.Name, dto.Description))
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create department", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create department", err)
	}

	s.logger.Info("department created", "department_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto DepartmentDTO) (*Department, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.nameTaken(ctx, dto.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDepartmentExists
	}

	row.Name = dto.Name
	row.Description = dto.Description
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to update department", err)
	}

	s.logger.Info("department updated", "department_id", id)
	return FromDataModel(row), nil
}

func (s *Service) Toggle(ctx context.Context, id int64) (*Department, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := FromDataModel(row)
	if d.IsActive {
		d.Deactivate()
	} else {
		d.Activate()
	}
	row.IsActive = d.IsActive

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to update department", err)
	}

	s.logger.Info("department toggled", "department_id", id, "active", row.IsActive)
	return FromDataModel(row), nil
}

// Delete refuses while any user is still assigned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	counts, err := s.repo.UserCounts(ctx)
	if err != nil {
		return internal.NewInternalError("failed to count department users", err)
	}
	if n := counts[id]; n > 0 {
		s.logger.Warn("department delete refused", "department_id", id, "users", n)
		return ErrDepartmentInUse.WithDetails(map[string]int64{"users": n})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete department", err)
	}

	s.logger.Info("department deleted", "department_id", id)
	return nil
}
