package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*userDatamodel.Department, error) {
	var departments []*userDatamodel.Department
	err := database.Conn(ctx, r.db).Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) find(ctx context.Context, column string, value interface{}) (*userDatamodel.Department, error) {
	var d userDatamodel.Department
	err := database.Conn(ctx, r.db).Where(column+" = ?", value).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.Department, error) {
	return r.find(ctx, "id", id)
}

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*userDatamodel.Department, error) {
	return r.find(ctx, "name", name)
}

func (r *DepartmentRepository) UserCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		DepartmentID int64
		Total        int64
	}
	err := database.Conn(ctx, r.db).
		Model(&userDatamodel.User{}).
		Select("department_id, COUNT(*) AS total").
		Where("department_id IS NOT NULL").
		Group("department_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.DepartmentID] = row.Total
	}
	return counts, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *userDatamodel.Department) error {
	return database.Conn(ctx, r.db).Create(d).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, d *userDatamodel.Department) error {
	return database.Conn(ctx, r.db).Model(d).Select("name", "description", "is_active").Updates(d).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return database.Conn(ctx, r.db).Delete(&userDatamodel.Department{}, id).Error
}
