package data

import (
	"context"
	"encoding/json"
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/nats-io/nats.go"
)

const defaultAuditSubject = "moderation.event"

// auditEvent is the wire form of a ModerationEvent on the audit stream.
type auditEvent struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type natsAuditPublisher struct {
	conn    *nats.Conn
	subject string
	log     *log.Helper
}

// NewAuditPublisher connects to NATS and returns a publisher for
// enforcement events. An empty NATS URL disables publishing.
func NewAuditPublisher(c *conf.Data, logger log.Logger) (biz.AuditPublisher, func(), error) {
	helper := log.NewHelper(logger)

	if c.NATS.URL == "" {
		helper.Info("audit publishing disabled: no NATS url configured")
		return noopAuditPublisher{}, func() {}, nil
	}

	conn, err := nats.Connect(c.NATS.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}

	subject := c.NATS.Subject
	if subject == "" {
		subject = defaultAuditSubject
	}
	helper.Infof("connected to NATS at %s, publishing on %q", c.NATS.URL, subject)

	cleanup := func() {
		helper.Info("draining NATS connection")
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}

	return &natsAuditPublisher{
		conn:    conn,
		subject: subject,
		log:     helper,
	}, cleanup, nil
}

func (p *natsAuditPublisher) Publish(_ context.Context, e *biz.ModerationEvent) error {
	data, err := json.Marshal(auditEvent{
		ID:        e.ID,
		ChatID:    e.ChatID,
		MessageID: e.MessageID,
		UserID:    e.UserID,
		Action:    e.Action,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

type noopAuditPublisher struct{}

func (noopAuditPublisher) Publish(context.Context, *biz.ModerationEvent) error { return nil }
