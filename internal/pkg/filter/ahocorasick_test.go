package filter

import (
	"testing"
)

func TestPhraseSetBuildAndMatch(t *testing.T) {
	ps := NewPhraseSet()
	ps.Build([]string{"spamword", "buy now", "crypto pump"})

	if ps.Len() != 3 {
		t.Errorf("Len() = %d; want 3", ps.Len())
	}

	tests := []struct {
		text    string
		want    string
		matched bool
	}{
		{"this message has spamword inside", "spamword", true},
		{"BUY NOW limited offer", "buy now", true},
		{"join the Crypto Pump group", "crypto pump", true},
		{"perfectly normal chat", "", false},
		{"", "", false},
		{"spamwor", "", false},
	}

	for _, tt := range tests {
		got, ok := ps.FirstMatch(tt.text)
		if ok != tt.matched || got != tt.want {
			t.Errorf("FirstMatch(%q) = (%q, %v); want (%q, %v)", tt.text, got, ok, tt.want, tt.matched)
		}
		if ps.HasMatch(tt.text) != tt.matched {
			t.Errorf("HasMatch(%q) = %v; want %v", tt.text, !tt.matched, tt.matched)
		}
	}
}

func TestPhraseSetSubstringContainment(t *testing.T) {
	ps := NewPhraseSet()
	ps.Build([]string{"bad"})

	// Substring semantics: matches inside larger words too.
	if !ps.HasMatch("embadded") {
		t.Error("expected substring match inside a larger word")
	}
}

func TestPhraseSetOverlappingSuffixes(t *testing.T) {
	ps := NewPhraseSet()
	ps.Build([]string{"he", "she", "his", "hers"})

	word, ok := ps.FirstMatch("ushers")
	if !ok {
		t.Fatal("expected a match in 'ushers'")
	}
	// "she" ends at index 3, before "he" (same position, via suffix) and
	// "hers" (index 5); the left-most completed phrase wins.
	if word != "she" && word != "he" {
		t.Errorf("FirstMatch = %q; want the phrase completed first", word)
	}
}

func TestPhraseSetRebuild(t *testing.T) {
	ps := NewPhraseSet()
	ps.Build([]string{"old"})
	if !ps.HasMatch("the old phrase") {
		t.Fatal("expected match before rebuild")
	}

	ps.Build([]string{"new"})
	if ps.HasMatch("the old phrase") {
		t.Error("old phrase still matching after rebuild")
	}
	if !ps.HasMatch("the new phrase") {
		t.Error("new phrase not matching after rebuild")
	}
}

func TestPhraseSetEmpty(t *testing.T) {
	ps := NewPhraseSet()
	if ps.HasMatch("anything") {
		t.Error("empty set should never match")
	}
	ps.Build([]string{"", "  "})
	if got := ps.Len(); got != 1 {
		// Only the whitespace phrase survives; empty string is skipped.
		t.Errorf("Len() = %d; want 1", got)
	}
}
