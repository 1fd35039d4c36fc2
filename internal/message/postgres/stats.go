package postgres

import (
	"context"

	"github.com/frahmantamala/correspondence-management/internal/message"
	"github.com/jmoiron/sqlx"
)

// countsQuery treats a legacy recipient column as a recipient only when no
// message_recipients row exists for the same user.
const countsQuery = `
SELECT
	(SELECT COUNT(*) FROM message_recipients WHERE recipient_id = :user_id)
	+ (SELECT COUNT(*) FROM messages m WHERE m.recipient_id = :user_id
		AND NOT EXISTS (SELECT 1 FROM message_recipients r WHERE r.message_id = m.id AND r.recipient_id = :user_id)) AS total,
	(SELECT COUNT(*) FROM message_recipients WHERE recipient_id = :user_id AND is_archived = :no)
	+ (SELECT COUNT(*) FROM messages m WHERE m.recipient_id = :user_id AND m.is_archived = :no
		AND NOT EXISTS (SELECT 1 FROM message_recipients r WHERE r.message_id = m.id AND r.recipient_id = :user_id)) AS inbox,
	(SELECT COUNT(*) FROM message_recipients WHERE recipient_id = :user_id AND is_archived = :yes)
	+ (SELECT COUNT(*) FROM messages m WHERE m.recipient_id = :user_id AND m.is_archived = :yes
		AND NOT EXISTS (SELECT 1 FROM message_recipients r WHERE r.message_id = m.id AND r.recipient_id = :user_id)) AS archived,
	(SELECT COUNT(*) FROM messages WHERE sender_id = :user_id) AS sent,
	(SELECT COUNT(*) FROM message_recipients WHERE recipient_id = :user_id AND is_archived = :no AND status = :unread)
	+ (SELECT COUNT(*) FROM messages m WHERE m.recipient_id = :user_id AND m.is_archived = :no AND m.status = :unread
		AND NOT EXISTS (SELECT 1 FROM message_recipients r WHERE r.message_id = m.id AND r.recipient_id = :user_id)) AS unread`

// StatsRepository reads dashboard counters with plain SQL.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Counts(ctx context.Context, userID int64) (message.DashboardCounts, error) {
	var counts message.DashboardCounts

	query, args, err := sqlx.Named(countsQuery, map[string]interface{}{
		"user_id": userID,
		"no":      false,
		"yes":     true,
		"unread":  message.StatusNew,
	})
	if err != nil {
		return counts, err
	}

	err = r.db.GetContext(ctx, &counts, r.db.Rebind(query), args...)
	return counts, err
}
