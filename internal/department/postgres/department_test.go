package postgres_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/department/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestDepartmentPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Department Postgres Suite")
}

var _ = Describe("Department Repository", func() {
	var (
		db   *gorm.DB
		repo *postgres.DepartmentRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewDepartmentRepository(db)
		ctx = context.Background()
	})

	It("finds departments by name and returns nil when missing", func() {
		Expect(repo.Create(ctx, &userDatamodel.Department{Name: "Finance", IsActive: true})).To(Succeed())

		found, err := repo.GetByName(ctx, "Finance")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).NotTo(BeNil())

		missing, err := repo.GetByName(ctx, "Legal")
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeNil())
	})

	It("persists a deactivation", func() {
		d := &userDatamodel.Department{Name: "Finance", IsActive: true}
		Expect(repo.Create(ctx, d)).To(Succeed())

		d.IsActive = false
		Expect(repo.Update(ctx, d)).To(Succeed())

		stored, err := repo.GetByID(ctx, d.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.IsActive).To(BeFalse())
	})

	It("counts assigned users per department", func() {
		finance := &userDatamodel.Department{Name: "Finance", IsActive: true}
		Expect(repo.Create(ctx, finance)).To(Succeed())

		for _, name := range []string{"alice", "bob"} {
			_, err := dbtest.CreateUser(db, name, dbtest.InDepartment(finance.ID))
			Expect(err).NotTo(HaveOccurred())
		}
		_, err := dbtest.CreateUser(db, "carol")
		Expect(err).NotTo(HaveOccurred())

		counts, err := repo.UserCounts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(Equal(map[int64]int64{finance.ID: 2}))
	})
})
