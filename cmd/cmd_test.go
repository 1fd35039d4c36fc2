package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/app"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

const testConfig = `
env: test
http_server:
  port: 8080
database:
  driver: sqlite
  source: ":memory:"
security:
  access_token_secret: test-access-secret-0123456789abcdef
  refresh_token_secret: test-refresh-secret-0123456789abcdef
`

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(testConfig), 0o644)).To(Succeed())
	})

	It("reads the file and fills defaults", func() {
		cfg, err := loadConfig(dir)
		Expect(err).ToNot(HaveOccurred())

		Expect(cfg.Database.Driver).To(Equal("sqlite"))
		Expect(cfg.Upload.MaxSize).To(Equal(int64(16 << 20)))
		Expect(cfg.Security.BCryptCost).To(Equal(10))
		Expect(cfg.Bootstrap.AdminUsername).To(Equal("admin"))
	})

	It("lets ENV_ variables override file values", func() {
		GinkgoT().Setenv("ENV_HTTP_SERVER_PORT", "9090")

		cfg, err := loadConfig(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
	})

	It("rejects short token secrets", func() {
		GinkgoT().Setenv("ENV_SECURITY_ACCESS_TOKEN_SECRET", "short")

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("access_token_secret")))
	})
})

var _ = Describe("gooseDialect", func() {
	It("maps config drivers onto goose dialects", func() {
		Expect(gooseDialect("sqlite")).To(Equal("sqlite3"))
		Expect(gooseDialect("pgx")).To(Equal("postgres"))
	})
})

var _ = Describe("seed", func() {
	It("creates the catalog and one bootstrap admin however often it runs", func() {
		db, err := dbtest.Open()
		Expect(err).ToNot(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).ToNot(HaveOccurred())

		cfg := &internal.Config{
			Security: internal.SecurityConfig{
				AccessTokenSecret:    "test-access-secret-0123456789abcdef",
				RefreshTokenSecret:   "test-refresh-secret-0123456789abcdef",
				AccessTokenDuration:  time.Minute,
				RefreshTokenDuration: time.Hour,
				BCryptCost:           4,
			},
			Upload:    internal.UploadConfig{Dir: GinkgoT().TempDir()},
			Bootstrap: internal.BootstrapConfig{AdminPassword: "change-me-now"},
		}
		cfg.ApplyDefaults()
		a := app.New(cfg, &database.Handles{Gorm: db, SQLX: sqlx.NewDb(sqlDB, "sqlite3")}, logger.Discard())
		DeferCleanup(a.Mailer.Shutdown)

		Expect(seed(context.Background(), a)).To(Succeed())
		Expect(seed(context.Background(), a)).To(Succeed())

		var admins []userDatamodel.User
		Expect(db.Preload("RoleRef").Where("username = ?", "admin").Find(&admins).Error).To(Succeed())
		Expect(admins).To(HaveLen(1))
		Expect(admins[0].Role).To(Equal("admin"))
		Expect(admins[0].RoleRef).ToNot(BeNil())
		Expect(admins[0].RoleRef.Name).To(Equal("admin"))
		Expect(admins[0].CanChangeStatus).To(BeTrue())
	})
})
