package data

import (
	"context"
	"fmt"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

type eventRepo struct {
	data *Data
	log  *log.Helper
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(data *Data, logger log.Logger) biz.EventRepo {
	return &eventRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *eventRepo) Save(ctx context.Context, e *biz.ModerationEvent) (*biz.ModerationEvent, error) {
	saved := *e
	err := r.data.Pool.QueryRow(ctx,
		`INSERT INTO moderation_events (chat_id, message_id, user_id, action, detail)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.ChatID, e.MessageID, e.UserID, e.Action, e.Detail,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// List returns up to limit+1 events, newest first. chatID 0 means all
// chats.
func (r *eventRepo) List(ctx context.Context, chatID int64, cursor *pagination.Cursor, limit int) ([]*biz.ModerationEvent, error) {
	limit = pagination.ClampLimit(limit)

	query := `SELECT id, chat_id, message_id, user_id, action, detail, created_at
		 FROM moderation_events`
	var args []any
	where := func(clause string, arg any) {
		args = append(args, arg)
		kw := " AND "
		if len(args) == 1 {
			kw = " WHERE "
		}
		query += fmt.Sprintf("%s%s $%d", kw, clause, len(args))
	}

	if chatID != 0 {
		where("chat_id =", chatID)
	}
	if cursor != nil {
		where("id <", cursor.ID)
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.data.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepo) CountDistinctChats(ctx context.Context) (int64, error) {
	var n int64
	err := r.data.Pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT chat_id) FROM moderation_events`).Scan(&n)
	return n, err
}

func (r *eventRepo) CountDistinctUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.data.Pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM moderation_events WHERE user_id <> 0`).Scan(&n)
	return n, err
}

func scanEvents(rows pgx.Rows) ([]*biz.ModerationEvent, error) {
	var out []*biz.ModerationEvent
	for rows.Next() {
		var e biz.ModerationEvent
		if err := rows.Scan(&e.ID, &e.ChatID, &e.MessageID, &e.UserID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
