package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeMessageSent          = "message.sent"
	EventTypeMessageStatusChanged = "message.status_changed"
	EventTypeMessageReplied       = "message.replied"
	EventTypeNotificationCreated  = "notification.created"
)

type MessageSentEvent struct {
	BaseEvent
	MessageID      int64   `json:"message_id"`
	SenderID       int64   `json:"sender_id"`
	SenderUsername string  `json:"sender_username"`
	Subject        string  `json:"subject"`
	Priority       string  `json:"priority"`
	RecipientIDs   []int64 `json:"recipient_ids"`
}

func NewMessageSentEvent(messageID, senderID int64, senderUsername, subject, priority string, recipientIDs []int64) *MessageSentEvent {
	return &MessageSentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMessageSent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message_id":    messageID,
				"sender_id":     senderID,
				"priority":      priority,
				"recipient_ids": recipientIDs,
			},
		},
		MessageID:      messageID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Subject:        subject,
		Priority:       priority,
		RecipientIDs:   recipientIDs,
	}
}

type MessageStatusChangedEvent struct {
	BaseEvent
	MessageID   int64  `json:"message_id"`
	Subject     string `json:"subject"`
	SenderID    int64  `json:"sender_id"`
	ActorID     int64  `json:"actor_id"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

func NewMessageStatusChangedEvent(messageID int64, subject string, senderID, actorID int64, recipientID *int64, oldStatus, newStatus string) *MessageStatusChangedEvent {
	return &MessageStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMessageStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message_id": messageID,
				"actor_id":   actorID,
				"old_status": oldStatus,
				"new_status": newStatus,
			},
		},
		MessageID:   messageID,
		Subject:     subject,
		SenderID:    senderID,
		ActorID:     actorID,
		RecipientID: recipientID,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	}
}

// RecipientInitiated is true when a recipient changed their own state.
func (e *MessageStatusChangedEvent) RecipientInitiated() bool {
	return e.RecipientID != nil && *e.RecipientID == e.ActorID && e.ActorID != e.SenderID
}

type MessageRepliedEvent struct {
	BaseEvent
	OriginalMessageID int64  `json:"original_message_id"`
	ReplyMessageID    int64  `json:"reply_message_id"`
	ReplierID         int64  `json:"replier_id"`
	ReplierUsername   string `json:"replier_username"`
	OriginalSenderID  int64  `json:"original_sender_id"`
	Subject           string `json:"subject"`
	Priority          string `json:"priority"`
}

func NewMessageRepliedEvent(originalID, replyID, replierID int64, replierUsername string, originalSenderID int64, subject, priority string) *MessageRepliedEvent {
	return &MessageRepliedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMessageReplied,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"original_message_id": originalID,
				"reply_message_id":    replyID,
				"replier_id":          replierID,
			},
		},
		OriginalMessageID: originalID,
		ReplyMessageID:    replyID,
		ReplierID:         replierID,
		ReplierUsername:   replierUsername,
		OriginalSenderID:  originalSenderID,
		Subject:           subject,
		Priority:          priority,
	}
}

// NotificationCreatedEvent is published after the creating transaction
// committed; it feeds the e-mail copy.
type NotificationCreatedEvent struct {
	BaseEvent
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Link           string `json:"link"`
}

func NewNotificationCreatedEvent(notificationID, userID int64, email, title, content, link string) *NotificationCreatedEvent {
	return &NotificationCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNotificationCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"notification_id": notificationID,
				"user_id":         userID,
			},
		},
		NotificationID: notificationID,
		UserID:         userID,
		Email:          email,
		Title:          title,
		Content:        content,
		Link:           link,
	}
}
