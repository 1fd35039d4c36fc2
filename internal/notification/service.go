package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
)

// Repository returns nil, nil from GetByID when the row does not exist.
type Repository interface {
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*notificationDatamodel.Notification, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Contacts(ctx context.Context, userIDs []int64) ([]Contact, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify stores one notification per opted-in user and returns how many were
// created. The e-mail copies are announced only after the surrounding
// transaction commits.
func (s *Service) Notify(ctx context.Context, userIDs []int64, d Draft) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	contacts, err := s.repo.Contacts(ctx, userIDs)
	if err != nil {
		return 0, fmt.Errorf("load notification contacts: %w", err)
	}

	created := 0
	for _, c := range contacts {
		if !c.NotificationsEnabled {
			continue
		}

		row := ToDataModel(c.ID, d)
		if err := s.repo.Create(ctx, row); err != nil {
			return created, fmt.Errorf("create notification for user %d: %w", c.ID, err)
		}
		created++

		event := events.NewNotificationCreatedEvent(row.ID, c.ID, c.Email, row.Title, row.Content, row.Link)
		database.AfterCommit(ctx, func() {
			if s.publisher == nil {
				return
			}
			if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
				s.logger.Error("failed to publish notification event", "notification_id", event.NotificationID, "error", err)
			}
		})
	}

	s.logger.Debug("notifications created", "title", d.Title, "requested", len(userIDs), "created", created)
	return created, nil
}

func (s *Service) HandleMessageSent(ctx context.Context, event events.Event) error {
	sent, ok := event.(*events.MessageSentEvent)
	if !ok {
		return fmt.Errorf("expected MessageSentEvent, got %T", event)
	}

	_, err := s.Notify(ctx, sent.RecipientIDs, newMessageDraft(sent.Priority, sent.SenderUsername, sent.Subject, sent.MessageID))
	return err
}

// HandleStatusChanged tells the sender when a recipient moved their own state.
func (s *Service) HandleStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(*events.MessageStatusChangedEvent)
	if !ok {
		return fmt.Errorf("expected MessageStatusChangedEvent, got %T", event)
	}
	if !changed.RecipientInitiated() {
		return nil
	}

	_, err := s.Notify(ctx, []int64{changed.SenderID}, statusChangedDraft(changed.Subject, changed.NewStatus, changed.MessageID))
	return err
}

func (s *Service) HandleMessageReplied(ctx context.Context, event events.Event) error {
	replied, ok := event.(*events.MessageRepliedEvent)
	if !ok {
		return fmt.Errorf("expected MessageRepliedEvent, got %T", event)
	}

	_, err := s.Notify(ctx, []int64{replied.OriginalSenderID}, replyDraft(replied.Priority, replied.ReplierUsername, replied.Subject, replied.ReplyMessageID))
	return err
}

func (s *Service) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeMessageSent, s.HandleMessageSent)
	eventBus.Subscribe(events.EventTypeMessageStatusChanged, s.HandleStatusChanged)
	eventBus.Subscribe(events.EventTypeMessageReplied, s.HandleMessageReplied)
}

func (s *Service) List(ctx context.Context, userID int64, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to count notifications", err)
	}

	items, err := s.repo.ListByUser(ctx, userID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notifications", err)
	}

	return &Page{
		Items:      FromDataModelSlice(items),
		Page:       page,
		PerPage:    PageSize,
		Total:      total,
		TotalPages: int((total + PageSize - 1) / PageSize),
	}, nil
}

func (s *Service) Recent(ctx context.Context, userID int64) ([]*Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID, RecentLimit, 0)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	return FromDataModelSlice(items), nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to load notification", err)
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.UserID != userID {
		s.logger.Warn("notification read by non-owner", "notification_id", id, "user_id", userID)
		return ErrNotOwner
	}
	if n.IsRead {
		return nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return internal.NewInternalError("failed to mark notification read", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to mark notifications read", err)
	}
	s.logger.Info("notifications marked read", "user_id", userID, "count", updated)
	return updated, nil
}
