package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/access"
	"github.com/frahmantamala/correspondence-management/internal/access/postgres"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	accessDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestAccess(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Access Suite")
}

var _ = Describe("Access service", func() {
	var (
		db      *gorm.DB
		service *access.Service
		ctx     context.Context
		actor   *coreuser.Principal
	)

	roleNamed := func(name string) *access.Role {
		roles, err := service.Roles(ctx)
		Expect(err).ToNot(HaveOccurred())
		for _, r := range roles {
			if r.Name == name {
				return r
			}
		}
		Fail("role " + name + " not seeded")
		return nil
	}

	permissionID := func(name string) int64 {
		var p accessDatamodel.Permission
		Expect(db.Where("name = ?", name).First(&p).Error).To(Succeed())
		return p.ID
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).ToNot(HaveOccurred())

		service = access.NewService(postgres.NewAccessRepository(db), auth.NewResolver(), database.NewTransactor(db), logger.Discard())
		ctx = context.Background()
		Expect(service.SeedCatalog(ctx)).To(Succeed())

		admin, err := dbtest.CreateUser(db, "root", dbtest.Admin())
		Expect(err).ToNot(HaveOccurred())
		actor = coreuser.FromDataModel(admin)
	})

	It("seeds idempotently", func() {
		var before int64
		Expect(db.Model(&accessDatamodel.Permission{}).Count(&before).Error).To(Succeed())

		Expect(service.SeedCatalog(ctx)).To(Succeed())

		var after int64
		Expect(db.Model(&accessDatamodel.Permission{}).Count(&after).Error).To(Succeed())
		Expect(after).To(Equal(before))
	})

	It("lists groups in order followed by uncategorized permissions", func() {
		Expect(db.Create(&accessDatamodel.Permission{Name: "legacy_export", DisplayName: "Legacy export"}).Error).To(Succeed())

		catalog, err := service.Catalog(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(catalog.Groups).To(HaveLen(len(auth.Catalog)))
		Expect(catalog.Groups[0].Name).To(Equal("user_management"))
		Expect(catalog.Groups[0].Permissions[0].Name).To(Equal(auth.PermManageUsers))
		Expect(catalog.Uncategorized).To(HaveLen(1))
		Expect(catalog.Uncategorized[0].Name).To(Equal("legacy_export"))
	})

	Describe("roles", func() {
		It("creates a role with its permission set", func() {
			role, err := service.CreateRole(ctx, access.RoleDTO{Name: "Clerk", PermissionIDs: []int64{permissionID(auth.PermDeleteMessages)}})
			Expect(err).ToNot(HaveOccurred())
			Expect(role.Name).To(Equal("clerk"))
			Expect(role.Permissions).To(HaveLen(1))

			_, err = service.CreateRole(ctx, access.RoleDTO{Name: "clerk"})
			Expect(err).To(MatchError(access.ErrRoleExists))
		})

		It("rejects unknown permission ids", func() {
			_, err := service.CreateRole(ctx, access.RoleDTO{Name: "clerk", PermissionIDs: []int64{9999}})
			Expect(errors.Is(err, access.ErrUnknownPermissions)).To(BeTrue())
		})

		It("replaces the permission set on update", func() {
			role, err := service.CreateRole(ctx, access.RoleDTO{Name: "clerk", PermissionIDs: []int64{permissionID(auth.PermDeleteMessages)}})
			Expect(err).ToNot(HaveOccurred())

			updated, err := service.UpdateRole(ctx, role.ID, access.RoleDTO{Name: "clerk", PermissionIDs: []int64{permissionID(auth.PermViewReports)}})
			Expect(err).ToNot(HaveOccurred())

			reloaded, err := service.Role(ctx, updated.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(reloaded.Permissions).To(HaveLen(1))
			Expect(reloaded.Permissions[0].Name).To(Equal(auth.PermViewReports))
		})

		It("protects system roles", func() {
			admin := roleNamed(auth.RoleAdmin)

			_, err := service.UpdateRole(ctx, admin.ID, access.RoleDTO{Name: "root"})
			Expect(err).To(MatchError(access.ErrSystemRole))
			Expect(service.DeleteRole(ctx, admin.ID)).To(MatchError(access.ErrSystemRole))
		})

		It("refuses to delete a role in use", func() {
			manager := roleNamed(auth.RoleManager)
			_, err := dbtest.CreateUser(db, "mona", dbtest.WithRole(manager.ID))
			Expect(err).ToNot(HaveOccurred())

			Expect(errors.Is(service.DeleteRole(ctx, manager.ID), access.ErrRoleInUse)).To(BeTrue())
			Expect(roleNamed(auth.RoleManager).UserCount).To(Equal(int64(1)))

			supervisor := roleNamed(auth.RoleSupervisor)
			Expect(service.DeleteRole(ctx, supervisor.ID)).To(Succeed())
		})
	})

	Describe("user permissions", func() {
		var target int64

		BeforeEach(func() {
			u, err := dbtest.CreateUser(db, "bob")
			Expect(err).ToNot(HaveOccurred())
			target = u.ID
		})

		It("changes the role and a legacy flag with one audit row each", func() {
			manager := roleNamed(auth.RoleManager)
			enabled := true

			perms, err := service.UpdateUserPermissions(ctx, actor, target, access.UpdateUserPermissionsDTO{
				RoleID:          &manager.ID,
				CanChangeStatus: &enabled,
				Notes:           "promotion",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(perms.RoleName).To(Equal(auth.RoleManager))
			Expect(perms.Grants).To(ContainElement(access.Grant{Permission: auth.PermViewReports, Source: "role"}))

			var changes []auditDatamodel.PermissionChange
			Expect(db.Where("user_id = ?", target).Order("id").Find(&changes).Error).To(Succeed())
			Expect(changes).To(HaveLen(2))
			Expect(changes[0].ChangeType).To(Equal(auditDatamodel.ChangeTypeRoleChange))
			Expect(changes[0].NewValue).To(Equal(auth.RoleManager))
			Expect(changes[1].ChangeType).To(Equal(auditDatamodel.ChangeTypeChangeStatus))
			Expect(changes[1].OldValue).To(Equal("false"))
			Expect(changes[1].ChangedByID).To(Equal(actor.ID))
		})

		It("records nothing when values do not change", func() {
			disabled := false
			_, err := service.UpdateUserPermissions(ctx, actor, target, access.UpdateUserPermissionsDTO{CanChangeStatus: &disabled})
			Expect(err).ToNot(HaveOccurred())

			var n int64
			Expect(db.Model(&auditDatamodel.PermissionChange{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("audits a named permission without granting it", func() {
			reports := permissionID(auth.PermViewReports)

			perms, err := service.UpdateUserPermissions(ctx, actor, target, access.UpdateUserPermissionsDTO{
				PermissionID: &reports,
				Notes:        "quarterly review",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(perms.Grants).ToNot(ContainElement(HaveField("Permission", auth.PermViewReports)))

			var changes []auditDatamodel.PermissionChange
			Expect(db.Where("user_id = ?", target).Find(&changes).Error).To(Succeed())
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].ChangeType).To(Equal(auditDatamodel.ChangeTypePermissionAdd))
			Expect(changes[0].OldValue).To(Equal("false"))
			Expect(changes[0].NewValue).To(Equal("true"))
			Expect(changes[0].PermissionID).To(HaveValue(Equal(reports)))
			Expect(changes[0].Notes).To(Equal("quarterly review"))
		})

		It("rejects an unknown permission id", func() {
			missing := int64(999999)
			_, err := service.UpdateUserPermissions(ctx, actor, target, access.UpdateUserPermissionsDTO{PermissionID: &missing})
			Expect(err).To(MatchError(access.ErrUnknownPermission))

			var n int64
			Expect(db.Model(&auditDatamodel.PermissionChange{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("refuses to change an administrator", func() {
			enabled := true
			_, err := service.UpdateUserPermissions(ctx, actor, actor.ID, access.UpdateUserPermissionsDTO{CanChangeStatus: &enabled})
			Expect(err).To(MatchError(access.ErrAdminTarget))
		})

		It("requires at least one change", func() {
			_, err := service.UpdateUserPermissions(ctx, actor, target, access.UpdateUserPermissionsDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})
})
