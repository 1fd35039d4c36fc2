package message

import "time"

// RecipientState is one recipient's status and archive flag. Legacy
// single-recipient messages keep it on the message row; everything else
// keeps it on the message_recipients row identified by RowID.
type RecipientState struct {
	MessageID   int64
	RecipientID int64
	Status      string
	IsArchived  bool
	ReadAt      *time.Time
	Legacy      bool
	RowID       int64
}

// Transition moves the state to status. It reports false and leaves the
// state untouched when status is already current.
func (s *RecipientState) Transition(status string, now time.Time) (string, bool) {
	old := s.Status
	if old == status {
		return old, false
	}
	s.Status = status
	if status == StatusRead && s.ReadAt == nil {
		s.ReadAt = &now
	}
	return old, true
}

// ScopeID is the recipient stamped on status-change rows; legacy rows carry
// none.
func (s *RecipientState) ScopeID() *int64 {
	if s.Legacy {
		return nil
	}
	id := s.RecipientID
	return &id
}

// IsRead follows the outbox definition of read.
func IsRead(status string) bool {
	for _, s := range ReadStatuses {
		if s == status {
			return true
		}
	}
	return false
}
