package service

import (
	"context"
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/metrics"
	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/sched"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

// ModerationService is the message-intake surface: the platform layer
// posts every new message and edit here.
type ModerationService struct {
	moderation *biz.ModerationUsecase
	settings   *biz.SettingsUsecase
	events     *biz.EventUsecase
	scheduler  *sched.Scheduler
	deleter    sched.Deleter
	log        *log.Helper
}

// NewModerationService creates a new ModerationService.
func NewModerationService(
	moderation *biz.ModerationUsecase,
	settings *biz.SettingsUsecase,
	events *biz.EventUsecase,
	scheduler *sched.Scheduler,
	deleter sched.Deleter,
	logger log.Logger,
) *ModerationService {
	return &ModerationService{
		moderation: moderation,
		settings:   settings,
		events:     events,
		scheduler:  scheduler,
		deleter:    deleter,
		log:        log.NewHelper(logger),
	}
}

type decisionReply struct {
	RequestID     string         `json:"request_id"`
	Action        string         `json:"action"`
	Deleted       bool           `json:"deleted"`
	BlockedWord   string         `json:"blocked_word,omitempty"`
	LinkReason    string         `json:"link_reason,omitempty"`
	Verdict       *abuse.Verdict `json:"verdict,omitempty"`
	ExpirySeconds int64          `json:"expiry_seconds,omitempty"`
}

// HandleMessage evaluates one message or edit.
func (s *ModerationService) HandleMessage(ctx khttp.Context) error {
	var m chat.Message
	if err := ctx.Bind(&m); err != nil {
		return err
	}
	return ctx.Result(200, s.process(ctx, &m))
}

// process runs the full per-message flow: cancel stale timers for
// edits, evaluate, delete-and-record on a hit, otherwise arm the
// auto-expiry timer for the message kind.
func (s *ModerationService) process(ctx context.Context, m *chat.Message) *decisionReply {
	requestID := uuid.NewString()
	key := sched.Key{ChatID: m.ChatID, MessageID: m.MessageID}

	// An edit re-enters the pipeline: any previous timer for the
	// message is stale.
	if m.IsEdit {
		s.scheduler.Cancel(key)
	}

	d := s.moderation.Evaluate(ctx, m)
	metrics.Decisions.WithLabelValues(d.Action.String()).Inc()

	reply := &decisionReply{
		RequestID:   requestID,
		Action:      d.Action.String(),
		BlockedWord: d.BlockedWord,
		LinkReason:  string(d.LinkReason),
		Verdict:     d.Verdict,
	}

	if d.Action.Deletes() {
		if err := s.deleter.Delete(ctx, m.ChatID, m.MessageID); err != nil {
			s.log.Errorf("request %s: delete chat=%d msg=%d failed: %v",
				requestID, m.ChatID, m.MessageID, err)
			metrics.Deletions.WithLabelValues("error").Inc()
		} else {
			reply.Deleted = true
			metrics.Deletions.WithLabelValues("ok").Inc()
		}
		if _, err := s.events.Record(ctx, m, d); err != nil {
			s.log.Errorf("request %s: record event failed: %v", requestID, err)
		}
		s.log.Infof("request %s: chat=%d msg=%d action=%s", requestID, m.ChatID, m.MessageID, d.Action)
		return reply
	}

	if delay, kind, ok := s.expiry(m); ok {
		s.scheduler.Schedule(key, delay)
		metrics.ScheduledDeletions.WithLabelValues(kind).Inc()
		reply.ExpirySeconds = int64(delay / time.Second)
		s.log.Debugf("request %s: chat=%d msg=%d expires in %v (%s)",
			requestID, m.ChatID, m.MessageID, delay, kind)
	}
	return reply
}

// expiry resolves the auto-expiry delay for an allowed message. Edits
// take the fixed edit delay; stickers win over generic media.
func (s *ModerationService) expiry(m *chat.Message) (time.Duration, string, bool) {
	switch {
	case m.IsEdit:
		d := s.settings.EditDelay()
		return d, "edit", d > 0
	case m.HasSticker:
		d, on := s.settings.DelayFor(m.ChatID, biz.DelayKindSticker)
		return d, "sticker", on
	case m.HasMedia:
		d, on := s.settings.DelayFor(m.ChatID, biz.DelayKindMedia)
		return d, "media", on
	}
	return 0, "", false
}

type approveRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type approveReply struct {
	OK bool `json:"ok"`
}

// ApproveMessage cancels any pending auto-expiry for a message, keeping
// it in the chat.
func (s *ModerationService) ApproveMessage(ctx khttp.Context) error {
	var in approveRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	s.approve(in.ChatID, in.MessageID)
	return ctx.Result(200, &approveReply{OK: true})
}

func (s *ModerationService) approve(chatID int64, messageID int) {
	s.scheduler.Cancel(sched.Key{ChatID: chatID, MessageID: messageID})
	s.log.Infof("approved chat=%d msg=%d, pending deletion cancelled", chatID, messageID)
}
