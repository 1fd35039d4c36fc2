package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockUserRepository struct {
	users      map[int64]*userDatamodel.User
	loginLogs  []*auditDatamodel.UserLoginLog
	shouldFail bool
}

func newMockUserRepository() *mockUserRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockUserRepository{
		users: map[int64]*userDatamodel.User{
			1: {ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: string(hash), IsActive: true, Role: RoleUser},
			2: {ID: 2, Username: "bob", Email: "bob@example.com", PasswordHash: string(hash), IsActive: false, Role: RoleUser},
		},
	}
}

func (m *mockUserRepository) find(match func(*userDatamodel.User) bool) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, errors.New("database down")
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(_ context.Context, username string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.Username == username })
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.Email == email })
}

func (m *mockUserRepository) GetWithRole(_ context.Context, id int64) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.ID == id })
}

func (m *mockUserRepository) SetResetCode(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	u := m.users[userID]
	u.ResetCode = &code
	u.ResetCodeExpiresAt = &expiresAt
	return nil
}

func (m *mockUserRepository) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	u := m.users[userID]
	u.PasswordHash = passwordHash
	u.ResetCode = nil
	u.ResetCodeExpiresAt = nil
	return nil
}

func (m *mockUserRepository) CreateLoginLog(_ context.Context, entry *auditDatamodel.UserLoginLog) error {
	m.loginLogs = append(m.loginLogs, entry)
	return nil
}

type mockSender struct {
	codes map[string]string
}

func (s *mockSender) SendResetCode(_ context.Context, email, _ string, code string) error {
	s.codes[email] = code
	return nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockUserRepository
		sender   *mockSender
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		sender = &mockSender{codes: map[string]string{}}
		tokenGen = NewJWTTokenGenerator("test-access-secret-0123456789abcdef", "test-refresh-secret-0123456789abcdef", 15*time.Minute, 24*time.Hour)
		service = NewService(mockRepo, tokenGen, sender, internal.SecurityConfig{BCryptCost: bcrypt.MinCost}, logger.Discard())
		ctx = internal.ContextWithRequestMeta(context.Background(), internal.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "ginkgo"})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("returns distinct access and refresh tokens and logs success", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			gomega.Expect(mockRepo.loginLogs).To(gomega.HaveLen(1))
			gomega.Expect(mockRepo.loginLogs[0].Status).To(gomega.Equal(auditDatamodel.LoginStatusSuccess))
			gomega.Expect(mockRepo.loginLogs[0].IPAddress).To(gomega.Equal("10.0.0.1"))
		})

		ginkgo.It("logs a failed attempt on a wrong password", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "nope"})

			gomega.Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(gomega.BeTrue())
			gomega.Expect(mockRepo.loginLogs).To(gomega.HaveLen(1))
			gomega.Expect(mockRepo.loginLogs[0].Status).To(gomega.Equal(auditDatamodel.LoginStatusFailed))
		})

		ginkgo.It("rejects inactive users and logs them as inactive", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Username: "bob", Password: "correct_password"})

			gomega.Expect(errors.Is(err, internal.ErrUserInactive)).To(gomega.BeTrue())
			gomega.Expect(mockRepo.loginLogs[0].Status).To(gomega.Equal(auditDatamodel.LoginStatusInactive))
		})

		ginkgo.It("does not log attempts for unknown usernames", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Username: "mallory", Password: "x"})

			gomega.Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(gomega.BeTrue())
			gomega.Expect(mockRepo.loginLogs).To(gomega.BeEmpty())
		})

		ginkgo.It("validates required fields", func() {
			_, err := service.Authenticate(ctx, LoginDTO{})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
		})
	})

	ginkgo.Describe("Tokens", func() {
		ginkgo.It("refreshes with a refresh token but not with an access token", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("reports expired access tokens", func() {
			expired := NewJWTTokenGenerator("test-access-secret-0123456789abcdef", "test-refresh-secret-0123456789abcdef", -time.Minute, time.Hour)
			token, err := expired.GenerateAccessToken(1, "alice")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(errors.Is(err, internal.ErrTokenExpired)).To(gomega.BeTrue())
		})

		ginkgo.It("loads the principal with its legacy inputs", func() {
			mockRepo.users[1].CanChangeStatus = true

			p, err := service.LoadPrincipal(ctx, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Username).To(gomega.Equal("alice"))
			gomega.Expect(p.CanChangeStatus).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Password reset", func() {
		ginkgo.It("emails a six digit code and accepts it once", func() {
			err := service.ForgotPassword(ctx, ForgotPasswordDTO{Email: "alice@example.com"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			code := sender.codes["alice@example.com"]
			gomega.Expect(code).To(gomega.MatchRegexp(`^\d{6}$`))

			err = service.ResetPassword(ctx, ResetPasswordDTO{Email: "alice@example.com", Code: code, Password: "new-secret", ConfirmPassword: "new-secret"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(VerifyPassword(mockRepo.users[1].PasswordHash, "new-secret")).To(gomega.Succeed())

			err = service.ResetPassword(ctx, ResetPasswordDTO{Email: "alice@example.com", Code: code, Password: "again1", ConfirmPassword: "again1"})
			gomega.Expect(errors.Is(err, ErrInvalidResetCode)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects an expired code", func() {
			gomega.Expect(service.ForgotPassword(ctx, ForgotPasswordDTO{Email: "alice@example.com"})).To(gomega.Succeed())
			code := sender.codes["alice@example.com"]
			service.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

			err := service.ResetPassword(ctx, ResetPasswordDTO{Email: "alice@example.com", Code: code, Password: "new-secret", ConfirmPassword: "new-secret"})
			gomega.Expect(errors.Is(err, ErrResetCodeExpired)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a mismatched confirmation", func() {
			err := service.ResetPassword(ctx, ResetPasswordDTO{Email: "alice@example.com", Code: "123456", Password: "new-secret", ConfirmPassword: "other"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})

		ginkgo.It("stays silent for unknown addresses", func() {
			err := service.ForgotPassword(ctx, ForgotPasswordDTO{Email: "ghost@example.com"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(sender.codes).To(gomega.BeEmpty())
		})
	})

	ginkgo.Context("when the repository fails", func() {
		ginkgo.It("returns an internal error", func() {
			mockRepo.shouldFail = true
			_, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
		})
	})
})
