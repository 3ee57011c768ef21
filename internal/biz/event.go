package biz

import (
	"context"
	"encoding/json"
	"time"

	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
)

// ModerationEvent records one enforcement action against a message.
type ModerationEvent struct {
	ID        int64
	ChatID    int64
	MessageID int
	UserID    int64
	Action    string
	Detail    string
	CreatedAt time.Time
}

// EventRepo is a ModerationEvent repository interface.
type EventRepo interface {
	Save(ctx context.Context, e *ModerationEvent) (*ModerationEvent, error)
	List(ctx context.Context, chatID int64, cursor *pagination.Cursor, limit int) ([]*ModerationEvent, error)
	CountDistinctChats(ctx context.Context) (int64, error)
	CountDistinctUsers(ctx context.Context) (int64, error)
}

// AuditPublisher broadcasts enforcement events to external subscribers.
type AuditPublisher interface {
	Publish(ctx context.Context, e *ModerationEvent) error
}

// EventStats summarizes enforcement reach.
type EventStats struct {
	DistinctChats int64
	DistinctUsers int64
}

// EventUsecase persists enforcement events and fans them out on the
// audit stream.
type EventUsecase struct {
	repo  EventRepo
	audit AuditPublisher
	log   *log.Helper
}

// NewEventUsecase new an Event usecase.
func NewEventUsecase(repo EventRepo, audit AuditPublisher, logger log.Logger) *EventUsecase {
	return &EventUsecase{
		repo:  repo,
		audit: audit,
		log:   log.NewHelper(logger),
	}
}

// Record persists an event for a deleting decision and publishes it to
// the audit stream. Publish failures are logged, never propagated.
func (uc *EventUsecase) Record(ctx context.Context, m *chat.Message, d *Decision) (*ModerationEvent, error) {
	saved, err := uc.repo.Save(ctx, &ModerationEvent{
		ChatID:    m.ChatID,
		MessageID: m.MessageID,
		UserID:    m.UserID,
		Action:    d.Action.String(),
		Detail:    decisionDetail(d),
	})
	if err != nil {
		return nil, err
	}

	if uc.audit != nil {
		if err := uc.audit.Publish(ctx, saved); err != nil {
			uc.log.Warnf("audit publish failed for chat=%d msg=%d: %v", m.ChatID, m.MessageID, err)
		}
	}
	return saved, nil
}

// ListEvents lists enforcement events, newest first, optionally scoped
// to one chat (chatID 0 means all chats).
func (uc *EventUsecase) ListEvents(ctx context.Context, chatID int64, cursor *pagination.Cursor, limit int) ([]*ModerationEvent, error) {
	return uc.repo.List(ctx, chatID, cursor, limit)
}

// Stats reports how many distinct chats and users have been acted on.
func (uc *EventUsecase) Stats(ctx context.Context) (*EventStats, error) {
	chats, err := uc.repo.CountDistinctChats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := uc.repo.CountDistinctUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &EventStats{DistinctChats: chats, DistinctUsers: users}, nil
}

func decisionDetail(d *Decision) string {
	switch d.Action {
	case ActionDeleteBlocklist:
		return d.BlockedWord
	case ActionDeleteLink:
		return string(d.LinkReason)
	case ActionDeleteAbuse:
		if d.Verdict != nil {
			b, err := json.Marshal(d.Verdict)
			if err == nil {
				return string(b)
			}
		}
	}
	return ""
}
