package user

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/message"
)

// RepositoryAPI returns nil, nil from single-row lookups that find nothing.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	GetRole(ctx context.Context, id int64) (*access.Role, error)
	Favorites(ctx context.Context, userID int64) ([]*userDatamodel.FavoriteUser, error)
	FavoriteIDs(ctx context.Context, userID int64) ([]int64, error)
	AddFavorite(ctx context.Context, f *userDatamodel.FavoriteUser) error
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) (bool, error)
	Directory(ctx context.Context, excludeID int64) ([]*userDatamodel.User, error)
}

type MessageCounter interface {
	Counts(ctx context.Context, userID int64) (message.DashboardCounts, error)
}

type ImageStore interface {
	Save(area string, fh *multipart.FileHeader, extensions ...string) (*attachment.StoredFile, error)
	Remove(relPaths ...string)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo     RepositoryAPI
	counter  MessageCounter
	images   ImageStore
	tx       Transactor
	security internal.SecurityConfig
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, counter MessageCounter, images ImageStore, tx Transactor, security internal.SecurityConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		counter:  counter,
		images:   images,
		tx:       tx,
		security: security,
		logger:   logger,
	}
}

func (s *Service) load(ctx context.Context, id int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := auth.HashPassword(password, s.security.BCryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return hashed, nil
}

func (s *Service) checkEmail(ctx context.Context, email string, exceptID int64) error {
	taken, err := s.repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return internal.NewInternalError("failed to check email", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) checkDepartment(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.DepartmentExists(ctx, *id)
	if err != nil {
		return internal.NewInternalError("failed to check department", err)
	}
	if !ok {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Service) checkRole(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	role, err := s.repo.GetRole(ctx, *id)
	if err != nil {
		return internal.NewInternalError("failed to check role", err)
	}
	if role == nil {
		return ErrRoleNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return FromDataModelSlice(users), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

// Create makes an active account. The admin legacy role also turns on both
// legacy status flags.
func (s *Service) Create(ctx context.Context, actor *coreuser.Principal, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var created *userDatamodel.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.repo.UsernameTaken(ctx, dto.Username)
		if err != nil {
			return internal.NewInternalError("failed to check username", err)
		}
		if taken {
			return ErrUsernameTaken
		}
		if err := s.checkEmail(ctx, dto.Email, 0); err != nil {
			return err
		}
		if err := s.checkDepartment(ctx, dto.DepartmentID); err != nil {
			return err
		}
		if err := s.checkRole(ctx, dto.RoleID); err != nil {
			return err
		}

		hashed, err := s.hash(dto.Password)
		if err != nil {
			return err
		}

		isAdmin := dto.Role == coreuser.LegacyRoleAdmin
		u := &userDatamodel.User{
			Username:                   dto.Username,
			Email:                      dto.Email,
			PasswordHash:               hashed,
			FullName:                   strings.TrimSpace(dto.FullName),
			DepartmentID:               dto.DepartmentID,
			Position:                   dto.Position,
			Role:                       dto.Role,
			RoleID:                     dto.RoleID,
			IsActive:                   true,
			Language:                   DefaultLanguage,
			NotificationsEnabled:       true,
			CanChangeStatus:            isAdmin,
			CanManageStatusPermissions: isAdmin,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return internal.NewInternalError("failed to create user", err)
		}

		created, err = s.repo.GetByID(ctx, u.ID)
		if err != nil {
			return internal.NewInternalError("failed to load user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", created.ID, "username", created.Username, "actor_id", actor.ID)
	return FromDataModel(created), nil
}

func (s *Service) Update(ctx context.Context, actor *coreuser.Principal, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *userDatamodel.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}

		email := strings.TrimSpace(dto.Email)
		if err := s.checkEmail(ctx, email, id); err != nil {
			return err
		}
		if err := s.checkDepartment(ctx, dto.DepartmentID); err != nil {
			return err
		}
		if err := s.checkRole(ctx, dto.RoleID); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"email":         email,
			"full_name":     strings.TrimSpace(dto.FullName),
			"department_id": dto.DepartmentID,
			"position":      dto.Position,
			"role":          dto.Role,
			"role_id":       dto.RoleID,
		}
		if dto.Password != "" {
			hashed, err := s.hash(dto.Password)
			if err != nil {
				return err
			}
			fields["password_hash"] = hashed
		}

		if err := s.repo.Update(ctx, id, fields); err != nil {
			return internal.NewInternalError("failed to update user", err)
		}

		var err error
		updated, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to load user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", id, "actor_id", actor.ID)
	return FromDataModel(updated), nil
}

func (s *Service) ToggleActive(ctx context.Context, actor *coreuser.Principal, id int64) (*User, error) {
	if id == actor.ID {
		return nil, ErrSelfToggle
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	u.IsActive = !u.IsActive
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": u.IsActive}); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.logger.Info("user active flag toggled", "user_id", id, "is_active", u.IsActive, "actor_id", actor.ID)
	return FromDataModel(u), nil
}

func (s *Service) Delete(ctx context.Context, actor *coreuser.Principal, id int64) error {
	if id == actor.ID {
		return ErrSelfDelete
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		referenced, err := s.repo.IsReferenced(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to check user references", err)
		}
		if referenced {
			return ErrUserReferenced
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return internal.NewInternalError("failed to delete user", err)
		}

		images := nonEmpty(u.ProfileImage, u.SignatureImage)
		database.AfterCommit(ctx, func() {
			s.images.Remove(images...)
		})

		s.logger.Info("user deleted", "user_id", id, "username", u.Username, "actor_id", actor.ID)
		return nil
	})
}

func (s *Service) Profile(ctx context.Context, p *coreuser.Principal) (*Profile, error) {
	u, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	counts, err := s.counter.Counts(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to count messages", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to load profile", err)
	}

	return &Profile{
		User: FromDataModel(u),
		Stats: MessageStats{
			Total:    counts.Total,
			Inbox:    counts.Inbox,
			Sent:     counts.Sent,
			Archived: counts.Archived,
		},
	}, nil
}

// UpdateProfile requires the current password even when it is not changing.
func (s *Service) UpdateProfile(ctx context.Context, p *coreuser.Principal, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *userDatamodel.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.load(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := auth.VerifyPassword(u.PasswordHash, dto.CurrentPassword); err != nil {
			s.logger.Warn("profile update with wrong password", "user_id", p.ID)
			return ErrWrongPassword
		}

		email := strings.TrimSpace(dto.Email)
		if err := s.checkEmail(ctx, email, p.ID); err != nil {
			return err
		}
		if err := s.checkDepartment(ctx, dto.DepartmentID); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"email":         email,
			"full_name":     strings.TrimSpace(dto.FullName),
			"phone":         dto.Phone,
			"position":      dto.Position,
			"bio":           dto.Bio,
			"signature":     dto.Signature,
			"department_id": dto.DepartmentID,
		}
		if dto.NewPassword != "" {
			hashed, err := s.hash(dto.NewPassword)
			if err != nil {
				return err
			}
			fields["password_hash"] = hashed
		}

		if err := s.repo.Update(ctx, p.ID, fields); err != nil {
			return internal.NewInternalError("failed to update profile", err)
		}

		updated, err = s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return internal.NewInternalError("failed to load user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", p.ID, "password_changed", dto.NewPassword != "")
	return FromDataModel(updated), nil
}

func (s *Service) UpdateSettings(ctx context.Context, p *coreuser.Principal, dto SettingsDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.Theme != "" {
		fields["theme"] = dto.Theme
	}
	if dto.Language != "" {
		fields["language"] = dto.Language
	}
	if dto.NotificationsEnabled != nil {
		fields["notifications_enabled"] = *dto.NotificationsEnabled
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, p.ID, fields); err != nil {
			return nil, internal.NewInternalError("failed to save settings", err)
		}
	}
	return s.Get(ctx, p.ID)
}

const (
	ImageProfile   = "profile"
	ImageSignature = "signature"
)

func imageColumn(kind string) (column, area string) {
	if kind == ImageSignature {
		return "signature_image", attachment.AreaSignatures
	}
	return "profile_image", attachment.AreaProfiles
}

// SetImage stores a png, jpg or gif and replaces the previous one.
func (s *Service) SetImage(ctx context.Context, p *coreuser.Principal, kind string, fh *multipart.FileHeader) (*User, error) {
	if fh == nil {
		return nil, internal.NewValidationFieldError("image", "image is required", internal.ErrCodeValidationFailed)
	}

	column, area := imageColumn(kind)
	stored, err := s.images.Save(area, fh, attachment.ImageExtensions...)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to store image", err)
	}

	var updated *userDatamodel.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.load(ctx, p.ID)
		if err != nil {
			return err
		}
		previous := u.ProfileImage
		if kind == ImageSignature {
			previous = u.SignatureImage
		}

		if err := s.repo.Update(ctx, p.ID, map[string]interface{}{column: stored.RelPath}); err != nil {
			return internal.NewInternalError("failed to save image", err)
		}
		if previous != "" {
			database.AfterCommit(ctx, func() {
				s.images.Remove(previous)
			})
		}

		updated, err = s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return internal.NewInternalError("failed to load user", err)
		}
		return nil
	})
	if err != nil {
		s.images.Remove(stored.RelPath)
		return nil, err
	}

	s.logger.Info("user image updated", "user_id", p.ID, "kind", kind)
	return FromDataModel(updated), nil
}

// Image returns the stored relative path of a user's image.
func (s *Service) Image(ctx context.Context, userID int64, kind string) (string, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	rel := u.ProfileImage
	if kind == ImageSignature {
		rel = u.SignatureImage
	}
	if rel == "" {
		return "", ErrImageNotFound
	}
	return rel, nil
}

func (s *Service) Favorites(ctx context.Context, p *coreuser.Principal) ([]*DirectoryEntry, error) {
	favorites, err := s.repo.Favorites(ctx, p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load favorites", err)
	}

	out := make([]*DirectoryEntry, 0, len(favorites))
	for _, f := range favorites {
		if f.Favorite != nil {
			out = append(out, DirectoryEntryFromDataModel(f.Favorite, true))
		}
	}
	return out, nil
}

func (s *Service) AddFavorite(ctx context.Context, p *coreuser.Principal, favoriteID int64) error {
	if favoriteID == p.ID {
		return ErrFavoriteSelf
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, favoriteID); err != nil {
			return err
		}

		ids, err := s.repo.FavoriteIDs(ctx, p.ID)
		if err != nil {
			return internal.NewInternalError("failed to load favorites", err)
		}
		for _, id := range ids {
			if id == favoriteID {
				return ErrFavoriteExists
			}
		}

		if err := s.repo.AddFavorite(ctx, &userDatamodel.FavoriteUser{UserID: p.ID, FavoriteID: favoriteID}); err != nil {
			return internal.NewInternalError("failed to add favorite", err)
		}
		return nil
	})
}

func (s *Service) RemoveFavorite(ctx context.Context, p *coreuser.Principal, favoriteID int64) error {
	removed, err := s.repo.RemoveFavorite(ctx, p.ID, favoriteID)
	if err != nil {
		return internal.NewInternalError("failed to remove favorite", err)
	}
	if !removed {
		return ErrFavoriteNotFound
	}
	return nil
}

// Directory lists the active users the caller can address, favorites
// flagged.
func (s *Service) Directory(ctx context.Context, p *coreuser.Principal) ([]*DirectoryEntry, error) {
	users, err := s.repo.Directory(ctx, p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load users", err)
	}
	ids, err := s.repo.FavoriteIDs(ctx, p.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load favorites", err)
	}

	favorite := make(map[int64]bool, len(ids))
	for _, id := range ids {
		favorite[id] = true
	}

	out := make([]*DirectoryEntry, len(users))
	for i, u := range users {
		out[i] = DirectoryEntryFromDataModel(u, favorite[u.ID])
	}
	return out, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
