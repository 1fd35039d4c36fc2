package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/message"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func first(q *gorm.DB, dst interface{}) (bool, error) {
	err := q.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MessageRepository) Create(ctx context.Context, m *messageDatamodel.Message) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(m).Error
}

func (r *MessageRepository) CreateAttachments(ctx context.Context, attachments []*messageDatamodel.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Create(&attachments).Error
}

func (r *MessageRepository) CreateRecipients(ctx context.Context, rows []*messageDatamodel.MessageRecipient) error {
	if len(rows) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Omit("Recipient").Create(&rows).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*messageDatamodel.Message, error) {
	var m messageDatamodel.Message
	found, err := first(database.Conn(ctx, r.db).Preload("Sender").Preload("Attachments").Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) ListByIDs(ctx context.Context, ids []int64) ([]*messageDatamodel.Message, error) {
	var messages []*messageDatamodel.Message
	err := database.Conn(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&messages).Error
	return messages, err
}

func stateFromRow(row *messageDatamodel.MessageRecipient) *message.RecipientState {
	return &message.RecipientState{
		MessageID:   row.MessageID,
		RecipientID: row.RecipientID,
		Status:      row.Status,
		IsArchived:  row.IsArchived,
		ReadAt:      row.ReadAt,
		RowID:       row.ID,
	}
}

func legacyState(m *messageDatamodel.Message) *message.RecipientState {
	return &message.RecipientState{
		MessageID:   m.ID,
		RecipientID: *m.RecipientID,
		Status:      m.Status,
		IsArchived:  m.IsArchived,
		Legacy:      true,
	}
}

// RecipientState prefers the message_recipients row and falls back to the
// legacy recipient column.
func (r *MessageRepository) RecipientState(ctx context.Context, m *messageDatamodel.Message, recipientID int64) (*message.RecipientState, error) {
	var row messageDatamodel.MessageRecipient
	found, err := first(database.Conn(ctx, r.db).Where("message_id = ? AND recipient_id = ?", m.ID, recipientID), &row)
	if err != nil {
		return nil, err
	}
	if found {
		return stateFromRow(&row), nil
	}
	if m.RecipientID != nil && *m.RecipientID == recipientID {
		return legacyState(m), nil
	}
	return nil, nil
}

func (r *MessageRepository) SaveRecipientState(ctx context.Context, state *message.RecipientState) error {
	conn := database.Conn(ctx, r.db)
	if state.Legacy {
		return conn.Model(&messageDatamodel.Message{}).
			Where("id = ?", state.MessageID).
			Updates(map[string]interface{}{
				"status":      state.Status,
				"is_archived": state.IsArchived,
			}).Error
	}
	return conn.Model(&messageDatamodel.MessageRecipient{}).
		Where("id = ?", state.RowID).
		Updates(map[string]interface{}{
			"status":      state.Status,
			"is_archived": state.IsArchived,
			"read_at":     state.ReadAt,
		}).Error
}

func (r *MessageRepository) UpdateSenderStatus(ctx context.Context, messageID int64, status string) error {
	return database.Conn(ctx, r.db).Model(&messageDatamodel.Message{}).
		Where("id = ?", messageID).
		Update("status", status).Error
}

func (r *MessageRepository) AppendStatusChange(ctx context.Context, change *messageDatamodel.MessageStatusChange) error {
	return database.Conn(ctx, r.db).Omit("ChangedBy").Create(change).Error
}

func (r *MessageRepository) StatusHistory(ctx context.Context, messageID int64) ([]*messageDatamodel.MessageStatusChange, error) {
	var changes []*messageDatamodel.MessageStatusChange
	err := database.Conn(ctx, r.db).
		Preload("ChangedBy").
		Where("message_id = ?", messageID).
		Order("changed_at DESC, id DESC").
		Find(&changes).Error
	return changes, err
}

func recipientStatus(u *userDatamodel.User, state *message.RecipientState) *message.RecipientStatus {
	out := &message.RecipientStatus{
		UserID:     state.RecipientID,
		Status:     state.Status,
		IsArchived: state.IsArchived,
		ReadAt:     state.ReadAt,
	}
	if u != nil {
		out.Username = u.Username
		out.FullName = u.FullName
		if u.Department != nil {
			out.Department = u.Department.Name
		}
	}
	return out
}

func (r *MessageRepository) RecipientStatuses(ctx context.Context, m *messageDatamodel.Message) ([]*message.RecipientStatus, error) {
	conn := database.Conn(ctx, r.db)

	var rows []*messageDatamodel.MessageRecipient
	err := conn.Preload("Recipient.Department").
		Where("message_id = ?", m.ID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*message.RecipientStatus, 0, len(rows)+1)
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		seen[row.RecipientID] = true
		out = append(out, recipientStatus(row.Recipient, stateFromRow(row)))
	}

	if m.RecipientID != nil && !seen[*m.RecipientID] {
		var u userDatamodel.User
		found, err := first(conn.Preload("Department").Where("id = ?", *m.RecipientID), &u)
		if err != nil {
			return nil, err
		}
		var owner *userDatamodel.User
		if found {
			owner = &u
		}
		out = append(out, recipientStatus(owner, legacyState(m)))
	}
	return out, nil
}

// Mailbox merges relation rows with legacy rows, newest first. limit <= 0
// returns everything.
func (r *MessageRepository) Mailbox(ctx context.Context, userID int64, archived bool, limit int) ([]*message.MailboxRow, error) {
	conn := database.Conn(ctx, r.db)

	var rows []*messageDatamodel.MessageRecipient
	err := conn.Where("recipient_id = ? AND is_archived = ?", userID, archived).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	states := make(map[int64]*message.RecipientState, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		states[row.MessageID] = stateFromRow(row)
		ids = append(ids, row.MessageID)
	}

	var related []*messageDatamodel.Message
	if len(ids) > 0 {
		if err := conn.Preload("Sender").Where("id IN ?", ids).Find(&related).Error; err != nil {
			return nil, err
		}
	}

	var legacy []*messageDatamodel.Message
	err = conn.Preload("Sender").
		Where("recipient_id = ? AND is_archived = ?", userID, archived).
		Where("NOT EXISTS (SELECT 1 FROM message_recipients mr WHERE mr.message_id = messages.id AND mr.recipient_id = ?)", userID).
		Find(&legacy).Error
	if err != nil {
		return nil, err
	}

	out := make([]*message.MailboxRow, 0, len(related)+len(legacy))
	for _, m := range related {
		out = append(out, &message.MailboxRow{Message: m, State: *states[m.ID]})
	}
	for _, m := range legacy {
		out = append(out, &message.MailboxRow{Message: m, State: *legacyState(m)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Message, out[j].Message
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recipientTally struct {
	MessageID int64
	Total     int64
	ReadCount int64
}

func (r *MessageRepository) Outbox(ctx context.Context, userID int64) ([]*message.OutboxItem, error) {
	conn := database.Conn(ctx, r.db)

	var messages []*messageDatamodel.Message
	err := conn.Where("sender_id = ?", userID).Order("date DESC, id DESC").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return []*message.OutboxItem{}, nil
	}

	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	var tallies []recipientTally
	err = conn.Model(&messageDatamodel.MessageRecipient{}).
		Select("message_id, COUNT(*) AS total, SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END) AS read_count", message.ReadStatuses).
		Where("message_id IN ?", ids).
		Group("message_id").
		Scan(&tallies).Error
	if err != nil {
		return nil, err
	}

	byMessage := make(map[int64]recipientTally, len(tallies))
	for _, t := range tallies {
		byMessage[t.MessageID] = t
	}

	items := make([]*message.OutboxItem, len(messages))
	for i, m := range messages {
		t := byMessage[m.ID]
		if t.Total == 0 && m.RecipientID != nil {
			t.Total = 1
			if message.IsRead(m.Status) {
				t.ReadCount = 1
			}
		}
		items[i] = &message.OutboxItem{
			ID:             m.ID,
			Subject:        m.Subject,
			Date:           m.Date,
			Status:         m.Status,
			Priority:       m.Priority,
			RecipientType:  m.RecipientType,
			HasAttachments: m.HasAttachments,
			RecipientCount: t.Total,
			ReadCount:      t.ReadCount,
		}
	}
	return items, nil
}

// Delete removes the messages with everything hanging off them and returns
// the stored attachment paths.
func (r *MessageRepository) Delete(ctx context.Context, ids []int64) ([]string, error) {
	conn := database.Conn(ctx, r.db)

	var paths []string
	err := conn.Model(&messageDatamodel.Attachment{}).Where("message_id IN ?", ids).Pluck("file_path", &paths).Error
	if err != nil {
		return nil, err
	}

	for _, model := range []interface{}{
		&messageDatamodel.MessageStatusChange{},
		&messageDatamodel.Attachment{},
		&messageDatamodel.MessageRecipient{},
	} {
		if err := conn.Where("message_id IN ?", ids).Delete(model).Error; err != nil {
			return nil, err
		}
	}

	if err := conn.Where("id IN ?", ids).Delete(&messageDatamodel.Message{}).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *MessageRepository) GetAttachment(ctx context.Context, id int64) (*messageDatamodel.Attachment, error) {
	var a messageDatamodel.Attachment
	found, err := first(database.Conn(ctx, r.db).Where("id = ?", id), &a)
	if !found {
		return nil, err
	}
	return &a, nil
}
