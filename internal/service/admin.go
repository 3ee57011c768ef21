package service

import (
	"errors"
	"strconv"
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/pkg/pagination"
	"biolinkbot/internal/pkg/sched"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// AdminService exposes blocklist, whitelist, delay and status management
// for chat administrators.
type AdminService struct {
	settings   *biz.SettingsUsecase
	moderation *biz.ModerationUsecase
	events     *biz.EventUsecase
	scheduler  *sched.Scheduler
	log        *log.Helper
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	settings *biz.SettingsUsecase,
	moderation *biz.ModerationUsecase,
	events *biz.EventUsecase,
	scheduler *sched.Scheduler,
	logger log.Logger,
) *AdminService {
	return &AdminService{
		settings:   settings,
		moderation: moderation,
		events:     events,
		scheduler:  scheduler,
		log:        log.NewHelper(logger),
	}
}

type mutateReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type phraseRequest struct {
	Phrase  string `json:"phrase"`
	AddedBy string `json:"added_by"`
}

type phraseEntry struct {
	ID        int64  `json:"id"`
	Phrase    string `json:"phrase"`
	AddedBy   string `json:"added_by"`
	CreatedAt int64  `json:"created_at"`
}

// AddBlockedPhrase adds a phrase to the blocklist.
func (s *AdminService) AddBlockedPhrase(ctx khttp.Context) error {
	var in phraseRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if _, err := s.settings.AddBlockedPhrase(ctx, in.Phrase, in.AddedBy); err != nil {
		if errors.Is(err, biz.ErrEmptyPhrase) {
			return kerrors.BadRequest("INVALID_PHRASE", err.Error())
		}
		return err
	}
	return ctx.Result(200, &mutateReply{Success: true, Message: "phrase added"})
}

// RemoveBlockedPhrase removes a phrase from the blocklist.
func (s *AdminService) RemoveBlockedPhrase(ctx khttp.Context) error {
	var in phraseRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if err := s.settings.RemoveBlockedPhrase(ctx, in.Phrase); err != nil {
		return err
	}
	return ctx.Result(200, &mutateReply{Success: true, Message: "phrase removed"})
}

// ListBlockedPhrases lists blocklist entries by cursor.
func (s *AdminService) ListBlockedPhrases(ctx khttp.Context) error {
	cursor, limit, err := pageParams(ctx)
	if err != nil {
		return err
	}
	items, err := s.settings.ListBlockedPhrases(ctx, cursor, limit)
	if err != nil {
		return err
	}
	page := pagination.BuildPage(items, limit, func(p *biz.BlockedPhrase) *pagination.Cursor {
		return &pagination.Cursor{ID: p.ID, Ts: p.CreatedAt}
	})
	entries := make([]*phraseEntry, len(page.Items))
	for i, p := range page.Items {
		entries[i] = &phraseEntry{ID: p.ID, Phrase: p.Phrase, AddedBy: p.AddedBy, CreatedAt: p.CreatedAt.Unix()}
	}
	return ctx.Result(200, &pagination.Page[*phraseEntry]{
		Items:      entries,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

type termRequest struct {
	Term    string `json:"term"`
	AddedBy string `json:"added_by"`
}

type termEntry struct {
	ID        int64  `json:"id"`
	Term      string `json:"term"`
	AddedBy   string `json:"added_by"`
	CreatedAt int64  `json:"created_at"`
}

// AddWhitelistTerm adds a domain substring to the whitelist.
func (s *AdminService) AddWhitelistTerm(ctx khttp.Context) error {
	var in termRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if _, err := s.settings.AddWhitelistTerm(ctx, in.Term, in.AddedBy); err != nil {
		if errors.Is(err, biz.ErrInvalidTerm) {
			return kerrors.BadRequest("INVALID_TERM", err.Error())
		}
		return err
	}
	return ctx.Result(200, &mutateReply{Success: true, Message: "term added"})
}

// RemoveWhitelistTerm removes a term from the whitelist.
func (s *AdminService) RemoveWhitelistTerm(ctx khttp.Context) error {
	var in termRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if err := s.settings.RemoveWhitelistTerm(ctx, in.Term); err != nil {
		return err
	}
	return ctx.Result(200, &mutateReply{Success: true, Message: "term removed"})
}

// ListWhitelistTerms lists whitelist entries by cursor.
func (s *AdminService) ListWhitelistTerms(ctx khttp.Context) error {
	cursor, limit, err := pageParams(ctx)
	if err != nil {
		return err
	}
	items, err := s.settings.ListWhitelistTerms(ctx, cursor, limit)
	if err != nil {
		return err
	}
	page := pagination.BuildPage(items, limit, func(t *biz.WhitelistTerm) *pagination.Cursor {
		return &pagination.Cursor{ID: t.ID, Ts: t.CreatedAt}
	})
	entries := make([]*termEntry, len(page.Items))
	for i, t := range page.Items {
		entries[i] = &termEntry{ID: t.ID, Term: t.Term, AddedBy: t.AddedBy, CreatedAt: t.CreatedAt.Unix()}
	}
	return ctx.Result(200, &pagination.Page[*termEntry]{
		Items:      entries,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

type delayRequest struct {
	Kind         string `json:"kind"`
	Mode         string `json:"mode"`
	DelaySeconds int64  `json:"delay_seconds"`
}

type delayEntry struct {
	Kind             string `json:"kind"`
	Mode             string `json:"mode"`
	DelaySeconds     int64  `json:"delay_seconds"`
	EffectiveSeconds int64  `json:"effective_seconds"`
	Active           bool   `json:"active"`
}

// SetChatDelay stores a per-chat auto-expiry override.
func (s *AdminService) SetChatDelay(ctx khttp.Context) error {
	chatID, err := chatIDVar(ctx)
	if err != nil {
		return err
	}
	var in delayRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	mode, err := parseDelayMode(in.Mode)
	if err != nil {
		return kerrors.BadRequest("INVALID_MODE", err.Error())
	}
	err = s.settings.SetChatDelay(ctx, chatID, biz.DelayKind(in.Kind), mode,
		time.Duration(in.DelaySeconds)*time.Second)
	if err != nil {
		if errors.Is(err, biz.ErrUnknownDelayKind) {
			return kerrors.BadRequest("INVALID_KIND", err.Error())
		}
		return err
	}
	return ctx.Result(200, &mutateReply{Success: true, Message: "delay updated"})
}

// GetChatDelays reports the stored and effective delays for a chat.
func (s *AdminService) GetChatDelays(ctx khttp.Context) error {
	chatID, err := chatIDVar(ctx)
	if err != nil {
		return err
	}
	kinds := []biz.DelayKind{biz.DelayKindMedia, biz.DelayKindSticker}
	entries := make([]*delayEntry, len(kinds))
	for i, kind := range kinds {
		stored := s.settings.ChatDelayFor(chatID, kind)
		effective, active := s.settings.DelayFor(chatID, kind)
		entries[i] = &delayEntry{
			Kind:             string(kind),
			Mode:             delayModeString(stored.Mode),
			DelaySeconds:     int64(stored.Delay / time.Second),
			EffectiveSeconds: int64(effective / time.Second),
			Active:           active,
		}
	}
	return ctx.Result(200, entries)
}

type eventEntry struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	UserID    int64  `json:"user_id"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// ListEvents lists enforcement events, optionally scoped to one chat.
func (s *AdminService) ListEvents(ctx khttp.Context) error {
	cursor, limit, err := pageParams(ctx)
	if err != nil {
		return err
	}
	var chatID int64
	if raw := ctx.Query().Get("chat_id"); raw != "" {
		chatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return kerrors.BadRequest("INVALID_CHAT_ID", "chat_id must be an integer")
		}
	}
	items, err := s.events.ListEvents(ctx, chatID, cursor, limit)
	if err != nil {
		return err
	}
	page := pagination.BuildPage(items, limit, func(e *biz.ModerationEvent) *pagination.Cursor {
		return &pagination.Cursor{ID: e.ID, Ts: e.CreatedAt}
	})
	entries := make([]*eventEntry, len(page.Items))
	for i, e := range page.Items {
		entries[i] = &eventEntry{
			ID:        e.ID,
			ChatID:    e.ChatID,
			MessageID: e.MessageID,
			UserID:    e.UserID,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Unix(),
		}
	}
	return ctx.Result(200, &pagination.Page[*eventEntry]{
		Items:      entries,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

type statsReply struct {
	DistinctChats int64 `json:"distinct_chats"`
	DistinctUsers int64 `json:"distinct_users"`
}

// Stats reports how many distinct chats and users have been acted on.
func (s *AdminService) Stats(ctx khttp.Context) error {
	stats, err := s.events.Stats(ctx)
	if err != nil {
		return err
	}
	return ctx.Result(200, &statsReply{
		DistinctChats: stats.DistinctChats,
		DistinctUsers: stats.DistinctUsers,
	})
}

type statusReply struct {
	ClassifierReady  bool    `json:"classifier_ready"`
	AbuseEnabled     bool    `json:"abuse_enabled"`
	AbuseThreshold   float64 `json:"abuse_threshold"`
	BlocklistSize    int     `json:"blocklist_size"`
	PendingDeletions int     `json:"pending_deletions"`
}

// Status reports the live state of the moderation pipeline.
func (s *AdminService) Status(ctx khttp.Context) error {
	return ctx.Result(200, &statusReply{
		ClassifierReady:  s.moderation.ClassifierReady(),
		AbuseEnabled:     s.moderation.AbuseEnabled(),
		AbuseThreshold:   s.moderation.AbuseThreshold(),
		BlocklistSize:    s.settings.BlocklistSize(),
		PendingDeletions: s.scheduler.Pending(),
	})
}

type classifierKeyRequest struct {
	APIKey string `json:"api_key"`
}

// InstallClassifierKey installs a new classifier credential, re-enabling
// remote classification after a breaker trip.
func (s *AdminService) InstallClassifierKey(ctx khttp.Context) error {
	var in classifierKeyRequest
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if in.APIKey == "" {
		return kerrors.BadRequest("INVALID_KEY", "api_key must not be empty")
	}
	s.moderation.InstallClassifierKey(in.APIKey)
	return ctx.Result(200, &mutateReply{Success: true, Message: "classifier key installed"})
}

func pageParams(ctx khttp.Context) (*pagination.Cursor, int, error) {
	q := ctx.Query()
	cursor, err := pagination.Decode(q.Get("cursor"))
	if err != nil {
		return nil, 0, kerrors.BadRequest("INVALID_CURSOR", "malformed cursor token")
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	return cursor, pagination.ClampLimit(limit), nil
}

func chatIDVar(ctx khttp.Context) (int64, error) {
	chatID, err := strconv.ParseInt(ctx.Vars().Get("chat_id"), 10, 64)
	if err != nil {
		return 0, kerrors.BadRequest("INVALID_CHAT_ID", "chat_id must be an integer")
	}
	return chatID, nil
}

func parseDelayMode(s string) (biz.DelayMode, error) {
	switch s {
	case "inherit":
		return biz.DelayInherit, nil
	case "disabled":
		return biz.DelayDisabled, nil
	case "fixed":
		return biz.DelayFixed, nil
	}
	return 0, errors.New("mode must be inherit, disabled or fixed")
}

func delayModeString(m biz.DelayMode) string {
	switch m {
	case biz.DelayDisabled:
		return "disabled"
	case biz.DelayFixed:
		return "fixed"
	default:
		return "inherit"
	}
}
