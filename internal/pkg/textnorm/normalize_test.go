package textnorm

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain ascii unchanged",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "diacritics stripped",
			input:    "café résumé",
			expected: "cafe resume",
		},
		{
			name:     "confusables folded",
			input:    "søme ßite",
			expected: "some ssite",
		},
		{
			name:     "dotless i and stroked l",
			input:    "lınk łink",
			expected: "link link",
		},
		{
			name:     "cyrillic homoglyphs folded",
			input:    "biоlink", // Cyrillic о
			expected: "biolink",
		},
		{
			name:     "zero width removed",
			input:    "bio​link",
			expected: "biolink",
		},
		{
			name:     "zero width non joiner removed",
			input:    "bio‌link",
			expected: "biolink",
		},
		{
			name:     "bidi controls removed",
			input:    "abc‪def‮",
			expected: "abcdef",
		},
		{
			name:     "word joiner removed",
			input:    "a⁠b",
			expected: "ab",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  spaced  ",
			expected: "spaced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"café résumé",
		"søme ßite with lınk",
		"bio​link • here",
		"  mixed Ćontent ‪ ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeObfuscations(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"bio dot link", "bio.link"},
		{"bio [dot] link", "bio.link"},
		{"bio [ DOT ] link", "bio.link"},
		{"bio • link", "bio.link"},
		{"bio ． link", "bio.link"},
		{"BIO.LINK", "bio.link"},
		{"b i o . l i n k", "bio.link"},
		{"bio-link", "biolink"},
		{"link_tree", "linktree"},
		{"LinkTr．ee", "linktr.ee"},
	}
	for _, c := range cases {
		got := NormalizeObfuscations(c.input)
		if got != c.want {
			t.Errorf("NormalizeObfuscations(%q) = %q; want %q", c.input, got, c.want)
		}
	}
}

func TestFoldConfusables(t *testing.T) {
	if got := FoldConfusables("øß"); got != "oss" {
		t.Errorf("FoldConfusables(ø ß) = %q; want %q", got, "oss")
	}
}
