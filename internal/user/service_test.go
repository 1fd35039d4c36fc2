package user_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	messagePostgres "github.com/frahmantamala/correspondence-management/internal/message/postgres"
	"github.com/frahmantamala/correspondence-management/internal/user"
	"github.com/frahmantamala/correspondence-management/internal/user/postgres"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

func imageHeader(name string) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", name)
	Expect(err).ToNot(HaveOccurred())
	_, err = part.Write([]byte("\x89PNG fake"))
	Expect(err).ToNot(HaveOccurred())
	Expect(writer.Close()).To(Succeed())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(form.RemoveAll)
	return form.File["image"][0]
}

var _ = Describe("User service", func() {
	var (
		db      *gorm.DB
		service *user.Service
		dir     string
		ctx     context.Context
		admin   *coreuser.Principal
		alice   *userDatamodel.User
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).ToNot(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).ToNot(HaveOccurred())

		dir = GinkgoT().TempDir()
		storage := attachment.NewStorage(internal.UploadConfig{Dir: dir, MaxSize: 1 << 20, AllowedExtensions: []string{"png", "txt"}})

		service = user.NewService(
			postgres.NewUserRepository(db),
			messagePostgres.NewStatsRepository(sqlx.NewDb(sqlDB, "sqlite3")),
			storage,
			database.NewTransactor(db),
			internal.SecurityConfig{BCryptCost: bcrypt.MinCost},
			logger.Discard(),
		)
		ctx = context.Background()

		root, err := dbtest.CreateUser(db, "root", dbtest.Admin())
		Expect(err).ToNot(HaveOccurred())
		admin = &coreuser.Principal{ID: root.ID, Username: root.Username, LegacyRole: coreuser.LegacyRoleAdmin}

		alice, err = dbtest.CreateUser(db, "alice")
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("administration", func() {
		It("turns on the legacy flags for admin accounts", func() {
			u, err := service.Create(ctx, admin, user.CreateUserDTO{Username: "dora", Email: "dora@example.com", Password: "secret1", Role: "admin"})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.IsActive).To(BeTrue())
			Expect(u.CanChangeStatus).To(BeTrue())
			Expect(u.CanManageStatusPermissions).To(BeTrue())
		})

		It("rejects a taken username or email", func() {
			_, err := service.Create(ctx, admin, user.CreateUserDTO{Username: "alice", Email: "new@example.com", Password: "secret1"})
			Expect(errors.Is(err, user.ErrUsernameTaken)).To(BeTrue())

			_, err = service.Create(ctx, admin, user.CreateUserDTO{Username: "newbie", Email: "alice@example.com", Password: "secret1"})
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeTrue())
		})

		It("rejects an unknown department", func() {
			missing := int64(99)
			_, err := service.Create(ctx, admin, user.CreateUserDTO{Username: "eve", Email: "eve@example.com", Password: "secret1", DepartmentID: &missing})
			Expect(errors.Is(err, user.ErrDepartmentNotFound)).To(BeTrue())
		})

		It("keeps the password when the update leaves it empty", func() {
			before := alice.PasswordHash
			u, err := service.Update(ctx, admin, alice.ID, user.UpdateUserDTO{Email: "alice@corp.example", Role: "user", FullName: "Alice A"})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Email).To(Equal("alice@corp.example"))

			var stored userDatamodel.User
			Expect(db.First(&stored, alice.ID).Error).To(Succeed())
			Expect(stored.PasswordHash).To(Equal(before))
		})

		It("toggles other accounts but never the caller's", func() {
			u, err := service.ToggleActive(ctx, admin, alice.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())

			_, err = service.ToggleActive(ctx, admin, admin.ID)
			Expect(errors.Is(err, user.ErrSelfToggle)).To(BeTrue())
		})

		It("refuses to delete a user who has correspondence", func() {
			m := &messageDatamodel.Message{Subject: "hi", Content: "x", Date: time.Now(), SenderID: alice.ID, Status: "new", RecipientType: "user", Priority: "normal", Confidentiality: "normal"}
			Expect(db.Omit("Sender", "Recipients", "Attachments").Create(m).Error).To(Succeed())

			err := service.Delete(ctx, admin, alice.ID)
			Expect(errors.Is(err, user.ErrUserReferenced)).To(BeTrue())

			_, err = service.Get(ctx, alice.ID)
			Expect(err).ToNot(HaveOccurred())
		})

		It("deletes an unreferenced user along with their favorites", func() {
			p := &coreuser.Principal{ID: alice.ID}
			Expect(service.AddFavorite(ctx, p, admin.ID)).To(Succeed())

			Expect(service.Delete(ctx, admin, alice.ID)).To(Succeed())

			_, err := service.Get(ctx, alice.ID)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())

			var n int64
			Expect(db.Model(&userDatamodel.FavoriteUser{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("never deletes the caller", func() {
			Expect(errors.Is(service.Delete(ctx, admin, admin.ID), user.ErrSelfDelete)).To(BeTrue())
		})
	})

	Describe("profile", func() {
		var p *coreuser.Principal

		BeforeEach(func() {
			hash, err := auth.HashPassword("current1", bcrypt.MinCost)
			Expect(err).ToNot(HaveOccurred())
			Expect(db.Model(&userDatamodel.User{}).Where("id = ?", alice.ID).Update("password_hash", hash).Error).To(Succeed())
			p = &coreuser.Principal{ID: alice.ID, Username: "alice"}
		})

		It("requires the current password", func() {
			_, err := service.UpdateProfile(ctx, p, user.UpdateProfileDTO{CurrentPassword: "wrong", Email: "alice@example.com"})
			Expect(errors.Is(err, user.ErrWrongPassword)).To(BeTrue())
		})

		It("changes the password when the confirmation matches", func() {
			_, err := service.UpdateProfile(ctx, p, user.UpdateProfileDTO{
				CurrentPassword: "current1",
				Email:           "alice@example.com",
				Signature:       "Alice, Registry",
				NewPassword:     "next-one",
				ConfirmPassword: "next-one",
			})
			Expect(err).ToNot(HaveOccurred())

			var stored userDatamodel.User
			Expect(db.First(&stored, alice.ID).Error).To(Succeed())
			Expect(auth.VerifyPassword(stored.PasswordHash, "next-one")).To(Succeed())
			Expect(stored.Signature).To(Equal("Alice, Registry"))
		})

		It("reports message counters", func() {
			profile, err := service.Profile(ctx, p)
			Expect(err).ToNot(HaveOccurred())
			Expect(profile.Username).To(Equal("alice"))
			Expect(profile.Stats.Total).To(BeZero())
		})

		It("stores settings", func() {
			off := false
			u, err := service.UpdateSettings(ctx, p, user.SettingsDTO{Theme: user.ThemeDark, NotificationsEnabled: &off})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Theme).To(Equal("dark"))
			Expect(u.NotificationsEnabled).To(BeFalse())
		})

		It("replaces the profile image and removes the old file", func() {
			first, err := service.SetImage(ctx, p, user.ImageProfile, imageHeader("me.png"))
			Expect(err).ToNot(HaveOccurred())
			Expect(first.HasProfileImage).To(BeTrue())
			oldRel, err := service.Image(ctx, alice.ID, user.ImageProfile)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.SetImage(ctx, p, user.ImageProfile, imageHeader("me2.png"))
			Expect(err).ToNot(HaveOccurred())

			_, statErr := os.Stat(filepath.Join(dir, oldRel))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("only accepts images", func() {
			_, err := service.SetImage(ctx, p, user.ImageSignature, imageHeader("notes.txt"))
			Expect(errors.Is(err, attachment.ErrFileNotAllowed)).To(BeTrue())
		})
	})

	Describe("favorites and directory", func() {
		var p *coreuser.Principal

		BeforeEach(func() {
			p = &coreuser.Principal{ID: alice.ID}
		})

		It("rejects self and duplicates", func() {
			Expect(errors.Is(service.AddFavorite(ctx, p, alice.ID), user.ErrFavoriteSelf)).To(BeTrue())
			Expect(service.AddFavorite(ctx, p, admin.ID)).To(Succeed())
			Expect(errors.Is(service.AddFavorite(ctx, p, admin.ID), user.ErrFavoriteExists)).To(BeTrue())
		})

		It("reports removing a non-favorite", func() {
			Expect(errors.Is(service.RemoveFavorite(ctx, p, admin.ID), user.ErrFavoriteNotFound)).To(BeTrue())
		})

		It("lists active users other than the caller with favorites flagged", func() {
			_, err := dbtest.CreateUser(db, "ghost", dbtest.Inactive())
			Expect(err).ToNot(HaveOccurred())
			Expect(service.AddFavorite(ctx, p, admin.ID)).To(Succeed())

			entries, err := service.Directory(ctx, p)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Username).To(Equal("root"))
			Expect(entries[0].IsFavorite).To(BeTrue())

			favorites, err := service.Favorites(ctx, p)
			Expect(err).ToNot(HaveOccurred())
			Expect(favorites).To(HaveLen(1))
		})
	})
})
