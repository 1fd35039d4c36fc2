package auth

import (
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Resolver", func() {
	var resolver *Resolver

	ginkgo.BeforeEach(func() {
		resolver = NewResolver()
	})

	ginkgo.It("grants everything to a legacy admin", func() {
		p := &user.Principal{LegacyRole: RoleAdmin}
		for _, group := range Catalog {
			for _, perm := range group.Permissions {
				gomega.Expect(resolver.HasPermission(p, perm.Name)).To(gomega.BeTrue(), perm.Name)
			}
		}
		gomega.Expect(resolver.IsAdmin(p)).To(gomega.BeTrue())
	})

	ginkgo.It("grants everything to a user whose role is admin", func() {
		p := &user.Principal{LegacyRole: RoleUser, RoleName: RoleAdmin}
		source, ok := resolver.GrantedBy(p, PermManageUsers)

		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(source).To(gomega.Equal("admin"))
	})

	ginkgo.It("grants exactly the role's permission set", func() {
		p := &user.Principal{LegacyRole: RoleUser, RoleName: RoleManager, RolePermissions: []string{PermChangeMessageStatus, PermViewReports}}

		gomega.Expect(resolver.HasPermission(p, PermViewReports)).To(gomega.BeTrue())
		gomega.Expect(resolver.HasPermission(p, PermManageUsers)).To(gomega.BeFalse())
		gomega.Expect(resolver.IsAdmin(p)).To(gomega.BeFalse())
	})

	ginkgo.DescribeTable("legacy flags",
		func(p *user.Principal, permission string, expected bool) {
			gomega.Expect(resolver.HasPermission(p, permission)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("can_change_status grants change_message_status",
			&user.Principal{CanChangeStatus: true}, PermChangeMessageStatus, true),
		ginkgo.Entry("can_manage_status_permissions grants manage_permissions",
			&user.Principal{CanManageStatusPermissions: true}, PermManagePermissions, true),
		ginkgo.Entry("can_change_status grants nothing else",
			&user.Principal{CanChangeStatus: true}, PermDeleteMessages, false),
		ginkgo.Entry("no flag no grant",
			&user.Principal{}, PermChangeMessageStatus, false),
	)

	ginkgo.It("derives the status checks from the same sources", func() {
		p := &user.Principal{CanChangeStatus: true}

		gomega.Expect(resolver.HasStatusPermission(p)).To(gomega.BeTrue())
		gomega.Expect(resolver.HasStatusManagementPermission(p)).To(gomega.BeFalse())
	})

	ginkgo.It("honours a custom source order", func() {
		custom := NewResolver(RoleSource{})
		p := &user.Principal{LegacyRole: RoleAdmin}

		gomega.Expect(custom.HasPermission(p, PermManageUsers)).To(gomega.BeFalse())
	})

	ginkgo.It("denies a nil principal", func() {
		gomega.Expect(resolver.HasPermission(nil, PermManageUsers)).To(gomega.BeFalse())
	})
})
