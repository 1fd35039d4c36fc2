package department

import (
	"time"

	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Department) Activate() {
	d.IsActive = true
}

func (d *Department) Deactivate() {
	d.IsActive = false
}

func NewDepartment(name, description string) *Department {
	return &Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
}

func ToDataModel(d *Department) *userDatamodel.Department {
	return &userDatamodel.Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModel(d *userDatamodel.Department) *Department {
	return &Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
