// Package linkdetect implements obfuscation-tolerant detection of disguised
// promotional links ("bio-link" patterns) in chat messages. Detection runs an
// ordered battery of strategies, from exact entity checks down to deliberately
// loose heuristics, and reports which strategy fired as a diagnostic reason.
package linkdetect

import (
	"regexp"
	"strconv"
	"strings"

	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/textnorm"
)

// Reason identifies the strategy that flagged a message. Reasons are audit
// annotations only; every non-empty reason is equally actionable.
type Reason string

const (
	ReasonEntityTextLink Reason = "entity:text_link"
	ReasonEntityURL      Reason = "entity:url"
	ReasonPatternURL     Reason = "pattern:url"
	ReasonPatternDomain  Reason = "pattern:domain"
)

// Config tunes the recall-oriented tail of the battery. The wide-window and
// transliterated-phrase heuristics will false-positive on ordinary prose, so
// chats that prefer precision can turn them off.
type Config struct {
	// WideWindow is the maximum distance in characters between "bio" and
	// "link" for the last-resort proximity heuristic.
	WideWindow int
	// EnableWideWindow toggles the proximity heuristic.
	EnableWideWindow bool
	// EnableHindiPhrase toggles the romanized "bio me link" phrase match.
	EnableHindiPhrase bool
}

// DefaultConfig enables the full battery with a 100-character window.
func DefaultConfig() Config {
	return Config{
		WideWindow:        100,
		EnableWideWindow:  true,
		EnableHindiPhrase: true,
	}
}

var urlPattern = regexp.MustCompile(`(https?://|www\.)[a-zA-Z0-9.\-]+(\.[a-zA-Z]{2,})+(/[a-zA-Z0-9._%+-]*)*`)

var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
	regexp.MustCompile(`(?i)\b(?:t\.me|telegram\.me)/[a-zA-Z0-9_\-]+\b`),
	regexp.MustCompile(`(?i)\b(?:bio\.link|linktr\.ee|lnk\.bio|linkin\.bio|beacons\.ai|tap\.bio|campsite\.bio|solo\.to|carrd\.co)(?:[^\s]*)\b`),
	regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|short\.ee)\b`),
}

var targetDomains = []string{
	"bio.link", "linktr.ee", "lnk.bio", "linkin.bio", "beacons.ai",
	"tap.bio", "campsite.bio", "solo.to", "carrd.co",
}

var targetSynonyms = []string{
	"biolink", "linktree", "linkinbio", "bio-link", "link-in-bio",
}

// Spacing/punctuation evasion heuristics, applied to raw or normalized text.
var (
	bioDotLinkRe    = regexp.MustCompile(`(?i)bio(\W*|dot)+link`)
	linktrDotEeRe   = regexp.MustCompile(`(?i)linktr(\W*|dot)+ee`)
	bioGapLinkRe    = regexp.MustCompile(`(?i)bio[\W_]{0,10}link`)
	linkGapTreeRe   = regexp.MustCompile(`(?i)link[\W_]{0,10}tree`)
	linkGapBioRe    = regexp.MustCompile(`(?i)link[\W_]{0,10}bio`)
	spacedBiolinkRe = regexp.MustCompile(`(?i)b\W*i\W*o\W*l\W*i\W*n\W*k`)
	spacedTreeRe    = regexp.MustCompile(`(?i)l\W*i\W*n\W*k\W*t\W*r\W*e\W*e`)
	hindiBioLinkRe  = regexp.MustCompile(`\bbio\s*(me|mein|mai|m)\s*link\b`)
	collapseSpaceRe = regexp.MustCompile(`\s+`)
	separatorRe     = regexp.MustCompile(`[\s\-\._]+`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

var digitFoldReplacer = strings.NewReplacer("0", "o", "1", "l", "¡", "i")

// Detector decides whether a message contains a disguised link.
type Detector struct {
	cfg    Config
	wideRe *regexp.Regexp // bio .. link within the window
	revRe  *regexp.Regexp // link .. bio within the window
}

// New creates a Detector with the given config.
func New(cfg Config) *Detector {
	if cfg.WideWindow <= 0 {
		cfg.WideWindow = 100
	}
	window := strconv.Itoa(cfg.WideWindow)
	return &Detector{
		cfg:    cfg,
		wideRe: regexp.MustCompile(`bio.{0,` + window + `}link`),
		revRe:  regexp.MustCompile(`link.{0,` + window + `}bio`),
	}
}

// HasLink reports whether the message contains a disguised link. It is
// consistent with Reason: true exactly when Reason returns ok.
func (d *Detector) HasLink(m *chat.Message) bool {
	_, ok := d.Reason(m)
	return ok
}

// HasLinkInText runs the text battery only, without entity checks.
func (d *Detector) HasLinkInText(text string) bool {
	_, ok := d.textReason(text)
	return ok
}

// Reason returns the diagnostic tag of the first matching strategy, in battery
// order, or ok=false when no strategy fires.
func (d *Detector) Reason(m *chat.Message) (Reason, bool) {
	// Entity scan first: explicit markup beats text heuristics. Offsets are
	// resolved against the original text; only the extracted segment is
	// normalized afterwards.
	for _, e := range m.Entities {
		switch e.Kind {
		case chat.EntityTextLink:
			if e.URL != "" {
				return ReasonEntityTextLink, true
			}
		case chat.EntityURL:
			if textnorm.Normalize(m.EntitySegment(e)) != "" {
				return ReasonEntityURL, true
			}
		}
	}
	return d.textReason(m.Content())
}

func (d *Detector) textReason(raw string) (Reason, bool) {
	norm := textnorm.Normalize(raw)

	if urlPattern.MatchString(norm) {
		return ReasonPatternURL, true
	}
	for _, p := range domainPatterns {
		if p.MatchString(norm) {
			return ReasonPatternDomain, true
		}
	}

	obf := textnorm.NormalizeObfuscations(raw)
	for _, dom := range targetDomains {
		if strings.Contains(obf, dom) {
			return Reason("domain:" + dom), true
		}
	}
	for _, syn := range targetSynonyms {
		if strings.Contains(obf, syn) {
			return Reason("synonym:" + syn), true
		}
	}

	if containsConfusableBiolink(raw) {
		return "match:confusable_biolink", true
	}
	if bioDotLinkRe.MatchString(raw) {
		return "match:bio*link", true
	}
	if linktrDotEeRe.MatchString(raw) {
		return "match:linktr*ee", true
	}
	if bioGapLinkRe.MatchString(norm) {
		return "match:bio..link", true
	}
	if linkGapTreeRe.MatchString(norm) {
		return "match:link..tree", true
	}
	if linkGapBioRe.MatchString(norm) {
		return "match:link..bio", true
	}
	if spacedBiolinkRe.MatchString(raw) {
		return "match:spaced-biolink", true
	}
	if spacedTreeRe.MatchString(raw) {
		return "match:spaced-linktree", true
	}

	base := collapseSpaceRe.ReplaceAllString(strings.ToLower(norm), " ")
	if d.cfg.EnableWideWindow {
		if d.wideRe.MatchString(base) || d.revRe.MatchString(base) {
			return "match:bio..link-heuristic", true
		}
	}
	if d.cfg.EnableHindiPhrase && hindiBioLinkRe.MatchString(base) {
		return "match:hindi-bio-link", true
	}
	return "", false
}

// containsConfusableBiolink folds digits that double as letters (0→o, 1→l)
// plus confusables, collapses to an alphanumeric run, and looks for the
// target words inside it.
func containsConfusableBiolink(raw string) bool {
	s := strings.ToLower(textnorm.Normalize(raw))
	s = separatorRe.ReplaceAllString(s, "")
	s = digitFoldReplacer.Replace(s)
	s = textnorm.FoldConfusables(s)
	collapsed := nonAlnumRe.ReplaceAllString(s, "")
	if strings.Contains(collapsed, "biolink") || strings.Contains(collapsed, "linktree") {
		return true
	}
	return strings.Contains(collapsed, "linktr") && strings.Contains(collapsed, "ee")
}
