package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	pmDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	"gorm.io/gorm"
)

type PersonalMailRepository struct {
	db *gorm.DB
}

func NewPersonalMailRepository(db *gorm.DB) *PersonalMailRepository {
	return &PersonalMailRepository{db: db}
}

func (r *PersonalMailRepository) List(ctx context.Context, userID int64, archived bool) ([]*pmDatamodel.PersonalMail, error) {
	var rows []*pmDatamodel.PersonalMail
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND is_archived = ?", userID, archived).
		Order("date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *PersonalMailRepository) GetByID(ctx context.Context, id int64) (*pmDatamodel.PersonalMail, error) {
	var m pmDatamodel.PersonalMail
	err := database.Conn(ctx, r.db).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PersonalMailRepository) Create(ctx context.Context, m *pmDatamodel.PersonalMail) error {
	return database.Conn(ctx, r.db).Omit("Attachments").Create(m).Error
}

func (r *PersonalMailRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&pmDatamodel.PersonalMail{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PersonalMailRepository) CreateAttachments(ctx context.Context, rows []*pmDatamodel.PersonalMailAttachment) error {
	return database.Conn(ctx, r.db).Create(&rows).Error
}

// Delete removes the entry with its attachment rows and returns the stored
// file paths.
func (r *PersonalMailRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	conn := database.Conn(ctx, r.db)

	var paths []string
	if err := conn.Model(&pmDatamodel.PersonalMailAttachment{}).Where("personal_mail_id = ?", id).Pluck("file_path", &paths).Error; err != nil {
		return nil, err
	}
	if err := conn.Where("personal_mail_id = ?", id).Delete(&pmDatamodel.PersonalMailAttachment{}).Error; err != nil {
		return nil, err
	}
	if err := conn.Delete(&pmDatamodel.PersonalMail{}, id).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *PersonalMailRepository) GetAttachment(ctx context.Context, id int64) (*pmDatamodel.PersonalMailAttachment, error) {
	var a pmDatamodel.PersonalMailAttachment
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
