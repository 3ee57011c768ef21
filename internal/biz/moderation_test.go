package biz

import (
	"context"
	"testing"

	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/hash"
	"biolinkbot/internal/pkg/linkdetect"
)

type fakeClassifier struct {
	verdict abuse.Verdict
	calls   int
	ready   bool
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) abuse.Verdict {
	f.calls++
	return f.verdict
}

func (f *fakeClassifier) Ready() bool { return f.ready }

func (f *fakeClassifier) EnableWithKey(_ string) { f.ready = true }

type fakeVerdictCache struct {
	entries map[string]*abuse.Verdict
	puts    int
}

func newFakeVerdictCache() *fakeVerdictCache {
	return &fakeVerdictCache{entries: make(map[string]*abuse.Verdict)}
}

func (f *fakeVerdictCache) Get(_ context.Context, key string) (*abuse.Verdict, error) {
	return f.entries[key], nil
}

func (f *fakeVerdictCache) Put(_ context.Context, key string, v *abuse.Verdict) error {
	f.entries[key] = v
	f.puts++
	return nil
}

type pipelineFixture struct {
	uc         *ModerationUsecase
	settings   *SettingsUsecase
	classifier *fakeClassifier
	cache      *fakeVerdictCache
}

func newPipeline(t *testing.T, cfg AbuseConfig) *pipelineFixture {
	t.Helper()
	settings := NewSettingsUsecase(newFakeSettingsRepo(), testDefaults(), testLogger())
	classifier := &fakeClassifier{ready: true}
	cache := newFakeVerdictCache()
	uc := NewModerationUsecase(
		settings,
		linkdetect.New(linkdetect.DefaultConfig()),
		classifier,
		cache,
		cfg,
		testLogger(),
	)
	return &pipelineFixture{uc: uc, settings: settings, classifier: classifier, cache: cache}
}

func TestEvaluateBlocklistBeatsLink(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{})
	if _, err := f.settings.AddBlockedPhrase(ctx, "spamword", "admin"); err != nil {
		t.Fatalf("AddBlockedPhrase: %v", err)
	}

	d := f.uc.Evaluate(ctx, &chat.Message{Text: "spamword and https://bio.link/me"})
	if d.Action != ActionDeleteBlocklist {
		t.Fatalf("action = %v; want delete_blocklist", d.Action)
	}
	if d.BlockedWord != "spamword" {
		t.Errorf("BlockedWord = %q; want spamword", d.BlockedWord)
	}
}

func TestEvaluateBlocklistBeatsLinkAndAbuse(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{Enabled: true, Threshold: 0.8})
	f.classifier.verdict = abuse.Verdict{IsAbusive: true, Confidence: 0.99, Reason: "api"}
	if _, err := f.settings.AddBlockedPhrase(ctx, "spamword", "admin"); err != nil {
		t.Fatalf("AddBlockedPhrase: %v", err)
	}

	// All three stages would fire here; the blocklist wins and the
	// classifier never runs.
	d := f.uc.Evaluate(ctx, &chat.Message{Text: "spamword https://bio.link/me you idiot"})
	if d.Action != ActionDeleteBlocklist {
		t.Fatalf("action = %v; want delete_blocklist", d.Action)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times despite blocklist hit", f.classifier.calls)
	}
}

func TestEvaluateLinkShortCircuitsClassifier(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{Enabled: true, Threshold: 0.8})
	f.classifier.verdict = abuse.Verdict{IsAbusive: true, Confidence: 0.99, Reason: "api"}

	d := f.uc.Evaluate(ctx, &chat.Message{Text: "go to https://bio.link/me now"})
	if d.Action != ActionDeleteLink {
		t.Fatalf("action = %v; want delete_link", d.Action)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times despite link hit", f.classifier.calls)
	}
}

func TestEvaluateDeletesLink(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{})

	d := f.uc.Evaluate(ctx, &chat.Message{Text: "check https://bio.link/me"})
	if d.Action != ActionDeleteLink {
		t.Fatalf("action = %v; want delete_link", d.Action)
	}
	if d.LinkReason == "" {
		t.Error("LinkReason is empty")
	}
}

func TestEvaluateWhitelistedEntitySkipsLinkStage(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{})
	if _, err := f.settings.AddWhitelistTerm(ctx, "linktr.ee", "admin"); err != nil {
		t.Fatalf("AddWhitelistTerm: %v", err)
	}

	msg := chat.Message{
		Text: "my page here",
		Entities: []chat.Entity{
			{Kind: chat.EntityTextLink, Offset: 3, Length: 4, URL: "https://linktr.ee/me"},
		},
	}
	if d := f.uc.Evaluate(ctx, &msg); d.Action != ActionAllow {
		t.Errorf("whitelisted entity action = %v; want allow", d.Action)
	}

	// The same domain in plain text has no entity to whitelist.
	plain := chat.Message{Text: "visit linktr.ee/me today"}
	if d := f.uc.Evaluate(ctx, &plain); d.Action != ActionDeleteLink {
		t.Errorf("plain text action = %v; want delete_link", d.Action)
	}
}

func TestEvaluateZeroWidthObfuscation(t *testing.T) {
	f := newPipeline(t, AbuseConfig{})

	d := f.uc.Evaluate(context.Background(), &chat.Message{Text: "join my bio‌link page"})
	if d.Action != ActionDeleteLink {
		t.Fatalf("action = %v; want delete_link", d.Action)
	}
	if d.LinkReason == "" {
		t.Error("LinkReason is empty")
	}
}

func TestEvaluateAbuseThreshold(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		verdict abuse.Verdict
		want    Action
	}{
		{
			name:    "above threshold",
			verdict: abuse.Verdict{IsAbusive: true, Confidence: 0.9, Reason: "api"},
			want:    ActionDeleteAbuse,
		},
		{
			name:    "at threshold",
			verdict: abuse.Verdict{IsAbusive: true, Confidence: 0.8, Reason: "api"},
			want:    ActionDeleteAbuse,
		},
		{
			name:    "below threshold",
			verdict: abuse.Verdict{IsAbusive: true, Confidence: 0.5, Reason: "api"},
			want:    ActionAllow,
		},
		{
			name:    "not abusive",
			verdict: abuse.Verdict{IsAbusive: false, Confidence: 0.99, Reason: "api"},
			want:    ActionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipeline(t, AbuseConfig{Enabled: true, Threshold: 0.8})
			f.classifier.verdict = tt.verdict

			d := f.uc.Evaluate(ctx, &chat.Message{Text: "some ordinary sentence"})
			if d.Action != tt.want {
				t.Errorf("action = %v; want %v", d.Action, tt.want)
			}
			if tt.want == ActionDeleteAbuse && d.Verdict == nil {
				t.Error("deleting decision carries no verdict")
			}
		})
	}
}

func TestEvaluateAbuseDisabled(t *testing.T) {
	f := newPipeline(t, AbuseConfig{Enabled: false})
	f.classifier.verdict = abuse.Verdict{IsAbusive: true, Confidence: 1}

	d := f.uc.Evaluate(context.Background(), &chat.Message{Text: "some ordinary sentence"})
	if d.Action != ActionAllow {
		t.Errorf("action = %v; want allow", d.Action)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times with abuse disabled", f.classifier.calls)
	}
}

func TestClassifyCachedHit(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{Enabled: true, Threshold: 0.8})

	const text = "some ordinary sentence"
	f.cache.entries[hash.HashTextSha256(text)] = &abuse.Verdict{
		IsAbusive: true, Confidence: 0.95, Reason: "api",
	}

	d := f.uc.Evaluate(ctx, &chat.Message{Text: text})
	if d.Action != ActionDeleteAbuse {
		t.Fatalf("action = %v; want delete_abuse", d.Action)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times despite cache hit", f.classifier.calls)
	}
}

func TestClassifyCachedSkipsFallbackVerdicts(t *testing.T) {
	ctx := context.Background()
	f := newPipeline(t, AbuseConfig{Enabled: true, Threshold: 0.8})
	f.classifier.verdict = abuse.Verdict{IsAbusive: false, Confidence: 0, Reason: abuse.ReasonFallback}

	f.uc.Evaluate(ctx, &chat.Message{Text: "some ordinary sentence"})
	if f.cache.puts != 0 {
		t.Errorf("fallback verdict was cached (%d puts)", f.cache.puts)
	}

	// A real verdict for the same text is cached.
	f.classifier.verdict = abuse.Verdict{IsAbusive: false, Confidence: 0.2, Reason: "api"}
	f.uc.Evaluate(ctx, &chat.Message{Text: "some ordinary sentence"})
	if f.cache.puts != 1 {
		t.Errorf("remote verdict puts = %d; want 1", f.cache.puts)
	}
}

func TestInstallClassifierKey(t *testing.T) {
	f := newPipeline(t, AbuseConfig{Enabled: true})
	f.classifier.ready = false

	f.uc.InstallClassifierKey("sk-new")
	if !f.uc.ClassifierReady() {
		t.Error("classifier not ready after key install")
	}
}
