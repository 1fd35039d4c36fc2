package department

import (
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
)

type DepartmentDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d *DepartmentDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
}

func (d DepartmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	return v.Err()
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}

var (
	ErrDepartmentNotFound = internal.NewNotFoundError("Department not found", internal.ErrCodeDepartmentNotFound)
	ErrDepartmentExists   = internal.NewConflictError("A department with this name already exists", internal.ErrCodeDepartmentExists)
	ErrDepartmentInUse    = internal.NewConflictError("Department still has users assigned", internal.ErrCodeDepartmentInUse)
)
