// Package textnorm canonicalizes message text for obfuscation-resistant
// matching. It strips diacritics, folds visually confusable letters to their
// ASCII base, and removes zero-width and bidi-control characters that are
// commonly used to disguise links.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// confusableReplacer folds a fixed table of visually confusable letters to
// their ASCII base. The table only covers letters that survive NFKD
// mark-stripping (ø, ß, ł and friends do not decompose into base + mark).
var confusableReplacer = strings.NewReplacer(
	"ø", "o",
	"ö", "o",
	"ó", "o",
	"ô", "o",
	"õ", "o",
	"œ", "oe",
	"ß", "ss",
	"ï", "i",
	"í", "i",
	"î", "i",
	"ì", "i",
	"ı", "i",
	"ĺ", "l",
	"ľ", "l",
	"ł", "l",
	// Cyrillic and Greek homoglyphs of Latin letters.
	"а", "a",
	"е", "e",
	"о", "o",
	"с", "c",
	"р", "p",
	"х", "x",
	"у", "y",
	"і", "i",
	"ѕ", "s",
	"ο", "o",
	"ι", "i",
)

// dotReplacer rewrites middle-dot glyphs used as "." stand-ins.
var dotReplacer = strings.NewReplacer(
	"•", ".",
	"·", ".",
	"∙", ".",
	"●", ".",
	"﹒", ".",
	"．", ".",
	"｡", ".",
)

var (
	bracketedDotRe = regexp.MustCompile(`\s*\[\s*dot\s*\]\s*`)
	spelledDotRe   = regexp.MustCompile(`\s*dot\s*`)
)

// stripMarks decomposes to NFKD and drops combining marks, so "café" and its
// decomposed form both end up as "cafe".
var stripMarks = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

func isInvisible(r rune) bool {
	// Zero-width spaces/joiners, bidi controls, word joiner.
	return (r >= 0x200B && r <= 0x200F) ||
		(r >= 0x202A && r <= 0x202E) ||
		r == 0x2060
}

// Normalize canonicalizes raw text: diacritics stripped, confusables folded,
// zero-width and bidi-control characters removed, surrounding whitespace
// trimmed. Idempotent; empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = confusableReplacer.Replace(out)
	out = strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, out)
	return strings.TrimSpace(out)
}

// NormalizeObfuscations produces the aggressive form used for domain and
// synonym substring matching: lower-cased, normalized, confusables folded a
// second time (catches precomposed forms the lower-casing just produced),
// textual and glyph "dot" spellings rewritten to ".", and spaces, hyphens and
// underscores removed. Never shown to users.
func NormalizeObfuscations(s string) string {
	out := strings.ToLower(s)
	out = Normalize(out)
	out = confusableReplacer.Replace(out)
	out = bracketedDotRe.ReplaceAllString(out, ".")
	out = spelledDotRe.ReplaceAllString(out, ".")
	out = dotReplacer.Replace(out)
	out = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(out)
	return out
}

// FoldConfusables applies only the confusable table. Exported for detector
// heuristics that fold digits and confusables over already-normalized text.
func FoldConfusables(s string) string {
	return confusableReplacer.Replace(s)
}
