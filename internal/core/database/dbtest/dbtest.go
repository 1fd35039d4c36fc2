// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"fmt"

	"github.com/frahmantamala/correspondence-management/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory database. A single connection keeps every
// statement on the same memory database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(datamodel.All()...); err != nil {
		return nil, fmt.Errorf("migrate test schema: %w", err)
	}
	return db, nil
}

type UserOption func(*userDatamodel.User)

func Inactive() UserOption {
	return func(u *userDatamodel.User) { u.IsActive = false }
}

func Muted() UserOption {
	return func(u *userDatamodel.User) { u.NotificationsEnabled = false }
}

func Admin() UserOption {
	return func(u *userDatamodel.User) { u.Role = "admin" }
}

func WithRole(roleID int64) UserOption {
	return func(u *userDatamodel.User) { u.RoleID = &roleID }
}

func InDepartment(departmentID int64) UserOption {
	return func(u *userDatamodel.User) { u.DepartmentID = &departmentID }
}

// CreateUser inserts an active, notification-enabled user.
func CreateUser(db *gorm.DB, username string, opts ...UserOption) (*userDatamodel.User, error) {
	u := &userDatamodel.User{
		Username:             username,
		Email:                username + "@example.com",
		PasswordHash:         "x",
		Role:                 "user",
		IsActive:             true,
		NotificationsEnabled: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Omit("Department", "RoleRef").Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
