package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

const ResetCodeLength = 6

var (
	ErrInvalidResetCode = internal.NewValidationError("Invalid email or reset code", internal.ErrCodeInvalidResetCode)
	ErrResetCodeExpired = internal.NewValidationError("Reset code has expired, request a new one", internal.ErrCodeResetCodeExpired)
)

// RepositoryAPI returns nil, nil when a user does not exist.
type RepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetWithRole(ctx context.Context, id int64) (*userDatamodel.User, error)
	SetResetCode(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	CreateLoginLog(ctx context.Context, entry *auditDatamodel.UserLoginLog) error
}

type ResetCodeSender interface {
	SendResetCode(ctx context.Context, email, username, code string) error
}

type Service struct {
	repo       RepositoryAPI
	tokens     TokenGenerator
	sender     ResetCodeSender
	logger     *slog.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

func NewService(repo RepositoryAPI, tokens TokenGenerator, sender ResetCodeSender, cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	cost := cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.ResetCodeDuration
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		sender:     sender,
		logger:     logger,
		bcryptCost: cost,
		resetTTL:   ttl,
		now:        time.Now,
	}
}

// Authenticate checks credentials and records the attempt for known users.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		s.logger.Error("failed to load user for login", "username", dto.Username, "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}
	if u == nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		s.recordLogin(ctx, u.ID, auditDatamodel.LoginStatusFailed)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !u.IsActive {
		s.recordLogin(ctx, u.ID, auditDatamodel.LoginStatusInactive)
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.recordLogin(ctx, u.ID, auditDatamodel.LoginStatusSuccess)
	s.logger.Info("user logged in", "user_id", u.ID)
	return s.issueTokens(u)
}

func (s *Service) recordLogin(ctx context.Context, userID int64, status string) {
	meta := internal.RequestMetaFromContext(ctx)
	entry := &auditDatamodel.UserLoginLog{
		UserID:    userID,
		LoginAt:   s.now(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Status:    status,
	}
	if err := s.repo.CreateLoginLog(ctx, entry); err != nil {
		s.logger.Error("failed to record login attempt", "user_id", userID, "status", status, "error", err)
	}
}

func (s *Service) issueTokens(u *userDatamodel.User) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.repo.GetWithRole(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to refresh token", err)
	}
	if u == nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(u)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// LoadPrincipal reads the user and role fresh from storage.
func (s *Service) LoadPrincipal(ctx context.Context, userID int64) (*user.Principal, error) {
	u, err := s.repo.GetWithRole(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}
	return user.FromDataModel(u), nil
}

// ForgotPassword never reveals whether the address belongs to an account.
func (s *Service) ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return internal.NewInternalError("failed to process request", err)
	}
	if u == nil || !u.IsActive {
		s.logger.Info("password reset requested for unknown or inactive account")
		return nil
	}

	code, err := GenerateResetCode()
	if err != nil {
		return internal.NewInternalError("failed to generate reset code", err)
	}

	if err := s.repo.SetResetCode(ctx, u.ID, code, s.now().Add(s.resetTTL)); err != nil {
		return internal.NewInternalError("failed to store reset code", err)
	}

	if err := s.sender.SendResetCode(ctx, u.Email, u.Username, code); err != nil {
		s.logger.Error("failed to send reset code", "user_id", u.ID, "error", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return internal.NewInternalError("failed to reset password", err)
	}
	if u == nil || u.ResetCode == nil || subtle.ConstantTimeCompare([]byte(*u.ResetCode), []byte(dto.Code)) != 1 {
		return ErrInvalidResetCode
	}
	if u.ResetCodeExpiresAt == nil || u.ResetCodeExpiresAt.Before(s.now()) {
		return ErrResetCodeExpired
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return internal.NewInternalError("failed to reset password", err)
	}

	s.logger.Info("password reset", "user_id", u.ID)
	return nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateResetCode returns a zero-padded six digit code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
