package biz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/filter"
	"biolinkbot/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
)

// ErrEmptyPhrase is returned when a blocklist phrase is blank.
var ErrEmptyPhrase = errors.New("blocklist phrase must not be empty")

// ErrInvalidTerm is returned when a whitelist term lacks a literal dot.
// Terms without a dot would match far too broadly as substrings.
var ErrInvalidTerm = errors.New("whitelist term must contain a dot")

// BlockedPhrase is a manually curated blocklist entry.
type BlockedPhrase struct {
	ID        int64
	Phrase    string
	AddedBy   string
	CreatedAt time.Time
}

// WhitelistTerm is a domain substring whose links are never flagged.
type WhitelistTerm struct {
	ID        int64
	Term      string
	AddedBy   string
	CreatedAt time.Time
}

// DelayKind selects which auto-expiry timer a delay setting applies to.
type DelayKind string

const (
	DelayKindMedia   DelayKind = "media"
	DelayKindSticker DelayKind = "sticker"
)

// ErrUnknownDelayKind is returned for a delay kind other than media or sticker.
var ErrUnknownDelayKind = errors.New("unknown delay kind")

// DelayMode says how a per-chat delay override behaves.
type DelayMode int

const (
	// DelayInherit falls back to the global default for the kind.
	DelayInherit DelayMode = iota
	// DelayDisabled turns auto-expiry off for the chat.
	DelayDisabled
	// DelayFixed uses the chat's own delay value.
	DelayFixed
)

// ChatDelay is a per-chat auto-expiry override.
type ChatDelay struct {
	ChatID    int64
	Kind      DelayKind
	Mode      DelayMode
	Delay     time.Duration
	UpdatedAt time.Time
}

// DelayDefaults are the global auto-expiry delays applied when a chat
// has no override.
type DelayDefaults struct {
	Edit    time.Duration
	Media   time.Duration
	Sticker time.Duration
}

// SettingsRepo persists blocklist, whitelist and delay settings.
type SettingsRepo interface {
	CreateBlockedPhrase(ctx context.Context, p *BlockedPhrase) (*BlockedPhrase, error)
	DeleteBlockedPhrase(ctx context.Context, phrase string) error
	ListBlockedPhrases(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*BlockedPhrase, error)
	AllBlockedPhrases(ctx context.Context) ([]*BlockedPhrase, error)

	CreateWhitelistTerm(ctx context.Context, t *WhitelistTerm) (*WhitelistTerm, error)
	DeleteWhitelistTerm(ctx context.Context, term string) error
	ListWhitelistTerms(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*WhitelistTerm, error)
	AllWhitelistTerms(ctx context.Context) ([]*WhitelistTerm, error)

	UpsertChatDelay(ctx context.Context, d *ChatDelay) error
	DeleteChatDelay(ctx context.Context, chatID int64, kind DelayKind) error
	AllChatDelays(ctx context.Context) ([]*ChatDelay, error)
}

type delayKey struct {
	ChatID int64
	Kind   DelayKind
}

type delayOverride struct {
	Mode  DelayMode
	Delay time.Duration
}

// SettingsUsecase owns the in-memory moderation settings and writes
// every mutation through to the repository. The evaluation path reads
// the blocklist matcher and whitelist snapshot without touching storage.
type SettingsUsecase struct {
	repo     SettingsRepo
	defaults DelayDefaults
	log      *log.Helper

	blocklist *filter.PhraseSet

	mu        sync.RWMutex
	phrases   []string
	whitelist []string
	delays    map[delayKey]delayOverride
}

// NewSettingsUsecase new a Settings usecase.
func NewSettingsUsecase(repo SettingsRepo, defaults DelayDefaults, logger log.Logger) *SettingsUsecase {
	return &SettingsUsecase{
		repo:      repo,
		defaults:  defaults,
		log:       log.NewHelper(logger),
		blocklist: filter.NewPhraseSet(),
		delays:    make(map[delayKey]delayOverride),
	}
}

// Load pulls all persisted settings into memory. Called once at startup.
func (uc *SettingsUsecase) Load(ctx context.Context) error {
	blocked, err := uc.repo.AllBlockedPhrases(ctx)
	if err != nil {
		return err
	}
	terms, err := uc.repo.AllWhitelistTerms(ctx)
	if err != nil {
		return err
	}
	delays, err := uc.repo.AllChatDelays(ctx)
	if err != nil {
		return err
	}

	phrases := make([]string, len(blocked))
	for i, p := range blocked {
		phrases[i] = p.Phrase
	}
	whitelist := make([]string, len(terms))
	for i, t := range terms {
		whitelist[i] = strings.ToLower(t.Term)
	}
	overrides := make(map[delayKey]delayOverride, len(delays))
	for _, d := range delays {
		overrides[delayKey{d.ChatID, d.Kind}] = delayOverride{d.Mode, d.Delay}
	}

	uc.mu.Lock()
	uc.phrases = phrases
	uc.whitelist = whitelist
	uc.delays = overrides
	uc.mu.Unlock()
	uc.blocklist.Build(phrases)

	uc.log.Infof("settings loaded: %d blocked phrases, %d whitelist terms, %d delay overrides",
		len(phrases), len(whitelist), len(overrides))
	return nil
}

// AddBlockedPhrase persists a new blocklist phrase and rebuilds the matcher.
func (uc *SettingsUsecase) AddBlockedPhrase(ctx context.Context, phrase, addedBy string) (*BlockedPhrase, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, ErrEmptyPhrase
	}
	uc.log.Infof("AddBlockedPhrase: %q by %s", phrase, addedBy)
	created, err := uc.repo.CreateBlockedPhrase(ctx, &BlockedPhrase{
		Phrase:  phrase,
		AddedBy: addedBy,
	})
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.phrases = append(uc.phrases, phrase)
	snapshot := append([]string(nil), uc.phrases...)
	uc.mu.Unlock()
	uc.blocklist.Build(snapshot)
	return created, nil
}

// RemoveBlockedPhrase deletes a blocklist phrase and rebuilds the matcher.
func (uc *SettingsUsecase) RemoveBlockedPhrase(ctx context.Context, phrase string) error {
	uc.log.Infof("RemoveBlockedPhrase: %q", phrase)
	if err := uc.repo.DeleteBlockedPhrase(ctx, phrase); err != nil {
		return err
	}

	uc.mu.Lock()
	kept := make([]string, 0, len(uc.phrases))
	for _, p := range uc.phrases {
		if !strings.EqualFold(p, phrase) {
			kept = append(kept, p)
		}
	}
	uc.phrases = kept
	uc.mu.Unlock()
	uc.blocklist.Build(kept)
	return nil
}

// ListBlockedPhrases lists blocklist entries by cursor.
func (uc *SettingsUsecase) ListBlockedPhrases(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*BlockedPhrase, error) {
	return uc.repo.ListBlockedPhrases(ctx, cursor, limit)
}

// MatchBlocklist reports the first blocklist phrase contained in text,
// case-insensitively.
func (uc *SettingsUsecase) MatchBlocklist(text string) (string, bool) {
	if uc.blocklist.Len() == 0 {
		return "", false
	}
	return uc.blocklist.FirstMatch(text)
}

// BlocklistSize is the number of phrases in the live matcher.
func (uc *SettingsUsecase) BlocklistSize() int {
	return uc.blocklist.Len()
}

// AddWhitelistTerm persists a whitelisted domain substring.
func (uc *SettingsUsecase) AddWhitelistTerm(ctx context.Context, term, addedBy string) (*WhitelistTerm, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if !strings.Contains(term, ".") {
		return nil, ErrInvalidTerm
	}
	uc.log.Infof("AddWhitelistTerm: %q by %s", term, addedBy)
	created, err := uc.repo.CreateWhitelistTerm(ctx, &WhitelistTerm{
		Term:    term,
		AddedBy: addedBy,
	})
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.whitelist = append(uc.whitelist, term)
	uc.mu.Unlock()
	return created, nil
}

// RemoveWhitelistTerm deletes a whitelisted term.
func (uc *SettingsUsecase) RemoveWhitelistTerm(ctx context.Context, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	uc.log.Infof("RemoveWhitelistTerm: %q", term)
	if err := uc.repo.DeleteWhitelistTerm(ctx, term); err != nil {
		return err
	}

	// Copy-on-write: IsWhitelisted iterates its snapshot outside the lock.
	uc.mu.Lock()
	kept := make([]string, 0, len(uc.whitelist))
	for _, t := range uc.whitelist {
		if t != term {
			kept = append(kept, t)
		}
	}
	uc.whitelist = kept
	uc.mu.Unlock()
	return nil
}

// ListWhitelistTerms lists whitelist entries by cursor.
func (uc *SettingsUsecase) ListWhitelistTerms(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*WhitelistTerm, error) {
	return uc.repo.ListWhitelistTerms(ctx, cursor, limit)
}

// IsWhitelisted reports whether any link entity of the message resolves
// to a whitelisted term, either through its URL or its visible text
// segment. Plain-text domains with no entity are never whitelisted.
func (uc *SettingsUsecase) IsWhitelisted(m *chat.Message) bool {
	uc.mu.RLock()
	terms := uc.whitelist
	uc.mu.RUnlock()
	if len(terms) == 0 {
		return false
	}

	for _, e := range m.Entities {
		if e.Kind != chat.EntityURL && e.Kind != chat.EntityTextLink {
			continue
		}
		candidates := []string{strings.ToLower(e.URL), strings.ToLower(m.EntitySegment(e))}
		for _, c := range candidates {
			if c == "" {
				continue
			}
			for _, t := range terms {
				if strings.Contains(c, t) {
					return true
				}
			}
		}
	}
	return false
}

// SetChatDelay stores a per-chat delay override. DelayInherit removes
// the override so the chat tracks the global default again.
func (uc *SettingsUsecase) SetChatDelay(ctx context.Context, chatID int64, kind DelayKind, mode DelayMode, delay time.Duration) error {
	if kind != DelayKindMedia && kind != DelayKindSticker {
		return ErrUnknownDelayKind
	}
	key := delayKey{chatID, kind}

	if mode == DelayInherit {
		if err := uc.repo.DeleteChatDelay(ctx, chatID, kind); err != nil {
			return err
		}
		uc.mu.Lock()
		delete(uc.delays, key)
		uc.mu.Unlock()
		return nil
	}

	if err := uc.repo.UpsertChatDelay(ctx, &ChatDelay{
		ChatID: chatID,
		Kind:   kind,
		Mode:   mode,
		Delay:  delay,
	}); err != nil {
		return err
	}
	uc.mu.Lock()
	uc.delays[key] = delayOverride{mode, delay}
	uc.mu.Unlock()
	return nil
}

// DelayFor resolves the effective auto-expiry delay for a chat and kind.
// The second return is false when auto-expiry is off for that chat.
func (uc *SettingsUsecase) DelayFor(chatID int64, kind DelayKind) (time.Duration, bool) {
	uc.mu.RLock()
	o, ok := uc.delays[delayKey{chatID, kind}]
	uc.mu.RUnlock()

	if ok {
		switch o.Mode {
		case DelayDisabled:
			return 0, false
		case DelayFixed:
			return o.Delay, o.Delay > 0
		}
	}

	var d time.Duration
	switch kind {
	case DelayKindMedia:
		d = uc.defaults.Media
	case DelayKindSticker:
		d = uc.defaults.Sticker
	}
	return d, d > 0
}

// ChatDelayFor returns the stored override for a chat and kind, with
// Mode set to DelayInherit when no override exists.
func (uc *SettingsUsecase) ChatDelayFor(chatID int64, kind DelayKind) ChatDelay {
	uc.mu.RLock()
	o, ok := uc.delays[delayKey{chatID, kind}]
	uc.mu.RUnlock()
	if !ok {
		return ChatDelay{ChatID: chatID, Kind: kind, Mode: DelayInherit}
	}
	return ChatDelay{ChatID: chatID, Kind: kind, Mode: o.Mode, Delay: o.Delay}
}

// EditDelay is the auto-expiry delay applied to edited messages that
// pass moderation.
func (uc *SettingsUsecase) EditDelay() time.Duration {
	return uc.defaults.Edit
}
