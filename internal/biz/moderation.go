package biz

import (
	"context"

	"biolinkbot/internal/metrics"
	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/hash"
	"biolinkbot/internal/pkg/linkdetect"

	"github.com/go-kratos/kratos/v2/log"
)

// Action is the moderation outcome for one message.
type Action int

const (
	ActionAllow Action = iota
	ActionDeleteBlocklist
	ActionDeleteLink
	ActionDeleteAbuse
)

func (a Action) String() string {
	switch a {
	case ActionDeleteBlocklist:
		return "delete_blocklist"
	case ActionDeleteLink:
		return "delete_link"
	case ActionDeleteAbuse:
		return "delete_abuse"
	default:
		return "allow"
	}
}

// Deletes reports whether the action removes the message.
func (a Action) Deletes() bool {
	return a != ActionAllow
}

// Decision is the result of evaluating one message. Exactly one of the
// detail fields is populated, matching the action.
type Decision struct {
	Action      Action
	BlockedWord string
	LinkReason  linkdetect.Reason
	Verdict     *abuse.Verdict
}

// Classifier yields an abuse verdict for message text.
type Classifier interface {
	Classify(ctx context.Context, text string) abuse.Verdict
	Ready() bool
	EnableWithKey(key string)
}

// VerdictCacheRepo caches remote classifier verdicts by content hash.
type VerdictCacheRepo interface {
	Get(ctx context.Context, contentHash string) (*abuse.Verdict, error)
	Put(ctx context.Context, contentHash string, v *abuse.Verdict) error
}

// AbuseConfig controls the abuse-classification stage.
type AbuseConfig struct {
	Enabled   bool
	Threshold float64
}

// ModerationUsecase runs the ordered decision pipeline over one message:
// blocklist, then link detection unless whitelisted, then abuse
// classification. The first hit wins.
type ModerationUsecase struct {
	settings   *SettingsUsecase
	detector   *linkdetect.Detector
	classifier Classifier
	verdicts   VerdictCacheRepo
	abuseCfg   AbuseConfig
	log        *log.Helper
}

// NewModerationUsecase creates a new ModerationUsecase.
func NewModerationUsecase(
	settings *SettingsUsecase,
	detector *linkdetect.Detector,
	classifier Classifier,
	verdicts VerdictCacheRepo,
	abuseCfg AbuseConfig,
	logger log.Logger,
) *ModerationUsecase {
	if abuseCfg.Threshold <= 0 || abuseCfg.Threshold > 1 {
		abuseCfg.Threshold = 0.8
	}
	return &ModerationUsecase{
		settings:   settings,
		detector:   detector,
		classifier: classifier,
		verdicts:   verdicts,
		abuseCfg:   abuseCfg,
		log:        log.NewHelper(logger),
	}
}

// Evaluate decides what to do with a message. It performs no platform
// I/O and no scheduling; callers act on the returned decision.
func (uc *ModerationUsecase) Evaluate(ctx context.Context, m *chat.Message) *Decision {
	content := m.Content()

	if word, ok := uc.settings.MatchBlocklist(content); ok {
		return &Decision{Action: ActionDeleteBlocklist, BlockedWord: word}
	}

	if reason, ok := uc.detector.Reason(m); ok && !uc.settings.IsWhitelisted(m) {
		return &Decision{Action: ActionDeleteLink, LinkReason: reason}
	}

	if uc.abuseCfg.Enabled && content != "" {
		v := uc.classifyCached(ctx, content)
		if v.IsAbusive && v.Confidence >= uc.abuseCfg.Threshold {
			return &Decision{Action: ActionDeleteAbuse, Verdict: &v}
		}
	}

	return &Decision{Action: ActionAllow}
}

// classifyCached consults the verdict cache before running the
// classifier. Fallback verdicts are never cached so a recovered
// classifier gets a fresh look at the same text.
func (uc *ModerationUsecase) classifyCached(ctx context.Context, text string) abuse.Verdict {
	key := hash.HashTextSha256(text)

	cached, err := uc.verdicts.Get(ctx, key)
	if err != nil {
		uc.log.Warnf("verdict cache get failed: %v", err)
	} else if cached != nil {
		metrics.ClassifierVerdicts.WithLabelValues("cached").Inc()
		return *cached
	}

	v := uc.classifier.Classify(ctx, text)
	metrics.ClassifierVerdicts.WithLabelValues(verdictSource(v)).Inc()
	if !v.FromFallback() {
		if err := uc.verdicts.Put(ctx, key, &v); err != nil {
			uc.log.Warnf("verdict cache put failed: %v", err)
		}
	}
	return v
}

func verdictSource(v abuse.Verdict) string {
	switch {
	case v.Reason == abuse.ReasonLocalMatch:
		return "local"
	case v.FromFallback():
		return "fallback"
	default:
		return "remote"
	}
}

// InstallClassifierKey swaps in a new classifier credential and closes
// the circuit breaker.
func (uc *ModerationUsecase) InstallClassifierKey(key string) {
	uc.log.Info("installing new classifier credential")
	uc.classifier.EnableWithKey(key)
}

// ClassifierReady reports whether remote classification is available.
func (uc *ModerationUsecase) ClassifierReady() bool {
	return uc.classifier.Ready()
}

// AbuseEnabled reports whether the abuse stage runs at all.
func (uc *ModerationUsecase) AbuseEnabled() bool {
	return uc.abuseCfg.Enabled
}

// AbuseThreshold is the confidence floor for an abuse deletion.
func (uc *ModerationUsecase) AbuseThreshold() float64 {
	return uc.abuseCfg.Threshold
}
