package department_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/correspondence-management/internal"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/department"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDepartmentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Department Service Suite")
}

type MockRepository struct {
	departments map[int64]*userDatamodel.Department
	users       map[int64]int64
	nextID      int64
	shouldFail  bool
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		departments: make(map[int64]*userDatamodel.Department),
		users:       make(map[int64]int64),
	}
}

var errDatabase = errors.New("database down")

func (m *MockRepository) GetAll(_ context.Context) ([]*userDatamodel.Department, error) {
	if m.shouldFail {
		return nil, errDatabase
	}
	var out []*userDatamodel.Department
	for id := int64(1); id <= m.nextID; id++ {
		if d, ok := m.departments[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64) (*userDatamodel.Department, error) {
	if m.shouldFail {
		return nil, errDatabase
	}
	d, ok := m.departments[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *MockRepository) GetByName(_ context.Context, name string) (*userDatamodel.Department, error) {
	if m.shouldFail {
		return nil, errDatabase
	}
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) UserCounts(_ context.Context) (map[int64]int64, error) {
	if m.shouldFail {
		return nil, errDatabase
	}
	return m.users, nil
}

func (m *MockRepository) Create(_ context.Context, d *userDatamodel.Department) error {
	if m.shouldFail {
		return errDatabase
	}
	m.nextID++
	d.ID = m.nextID
	m.departments[d.ID] = d
	return nil
}

func (m *MockRepository) Update(_ context.Context, d *userDatamodel.Department) error {
	if m.shouldFail {
		return errDatabase
	}
	cp := *d
	m.departments[d.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id int64) error {
	if m.shouldFail {
		return errDatabase
	}
	delete(m.departments, id)
	return nil
}

var _ = Describe("Department Service", func() {
	var (
		repo    *MockRepository
		service *department.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		service = department.NewService(repo, logger.Discard())
		ctx = context.Background()
	})

	create := func(name string) *department.Department {
		d, err := service.Create(ctx, department.DepartmentDTO{Name: name})
		Expect(err).ToNot(HaveOccurred())
		return d
	}

	Describe("Create", func() {
		It("creates an active department with a trimmed name", func() {
			d := create("  Finance ")

			Expect(d.ID).To(Equal(int64(1)))
			Expect(d.Name).To(Equal("Finance"))
			Expect(d.IsActive).To(BeTrue())
		})

		It("rejects a duplicate name", func() {
			create("Finance")
			_, err := service.Create(ctx, department.DepartmentDTO{Name: "Finance"})
			Expect(err).To(MatchError(department.ErrDepartmentExists))
		})

		It("requires a name", func() {
			_, err := service.Create(ctx, department.DepartmentDTO{Name: " "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("Update", func() {
		It("allows keeping its own name but not taking another", func() {
			finance := create("Finance")
			create("Legal")

			updated, err := service.Update(ctx, finance.ID, department.DepartmentDTO{Name: "Finance", Description: "Money"})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Description).To(Equal("Money"))

			_, err = service.Update(ctx, finance.ID, department.DepartmentDTO{Name: "Legal"})
			Expect(err).To(MatchError(department.ErrDepartmentExists))
		})

		It("reports a missing department", func() {
			_, err := service.Update(ctx, 42, department.DepartmentDTO{Name: "Ghost"})
			Expect(err).To(MatchError(department.ErrDepartmentNotFound))
		})
	})

	It("toggles the active flag", func() {
		d := create("Finance")

		toggled, err := service.Toggle(ctx, d.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(toggled.IsActive).To(BeFalse())

		toggled, err = service.Toggle(ctx, d.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(toggled.IsActive).To(BeTrue())
	})

	Describe("Delete", func() {
		It("refuses while users are assigned", func() {
			d := create("Finance")
			repo.users[d.ID] = 3

			err := service.Delete(ctx, d.ID)
			Expect(errors.Is(err, department.ErrDepartmentInUse)).To(BeTrue())
			Expect(repo.departments).To(HaveKey(d.ID))
		})

		It("removes an empty department", func() {
			d := create("Finance")
			Expect(service.Delete(ctx, d.ID)).To(Succeed())
			Expect(repo.departments).To(BeEmpty())
		})
	})

	It("lists departments with their user counts", func() {
		finance := create("Finance")
		create("Legal")
		repo.users[finance.ID] = 2

		list, err := service.List(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0].UserCount).To(Equal(int64(2)))
		Expect(list[1].UserCount).To(BeZero())
	})

	Context("when the repository fails", func() {
		It("returns an internal error", func() {
			repo.shouldFail = true
			_, err := service.List(ctx)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})
})
