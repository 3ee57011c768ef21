// Package filter provides the multi-pattern blocklist matcher. Blocklist
// semantics are case-insensitive substring containment over the message text;
// the Aho-Corasick automaton finds any of N phrases in a single pass.
package filter

import (
	"strings"
	"sync"
)

type node struct {
	children map[rune]*node
	failLink *node
	output   []string
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// PhraseSet is an Aho-Corasick automaton over a set of blocklist phrases.
// Build swaps in a fresh automaton under the write lock, so concurrent
// searches never observe a partially-built trie.
type PhraseSet struct {
	mu   sync.RWMutex
	root *node
	size int
}

// NewPhraseSet creates an empty PhraseSet.
func NewPhraseSet() *PhraseSet {
	return &PhraseSet{root: newNode()}
}

// Build rebuilds the automaton from the given phrases. Phrases are matched
// case-insensitively; empty phrases are skipped. The stored phrase (original
// casing) is reported on match.
func (ps *PhraseSet) Build(phrases []string) {
	root := newNode()
	count := 0
	for _, phrase := range phrases {
		folded := strings.ToLower(phrase)
		if folded == "" {
			continue
		}
		cur := root
		for _, r := range folded {
			next, ok := cur.children[r]
			if !ok {
				next = newNode()
				cur.children[r] = next
			}
			cur = next
		}
		cur.output = append(cur.output, phrase)
		count++
	}
	buildFailLinks(root)

	ps.mu.Lock()
	ps.root = root
	ps.size = count
	ps.mu.Unlock()
}

// buildFailLinks wires suffix links breadth-first and merges outputs so a
// match at any node also reports phrases ending at its proper suffixes.
func buildFailLinks(root *node) {
	queue := make([]*node, 0)
	for _, child := range root.children {
		child.failLink = root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for r, child := range cur.children {
			queue = append(queue, child)
			fail := cur.failLink
			for fail != nil && fail.children[r] == nil {
				fail = fail.failLink
			}
			if fail == nil {
				child.failLink = root
			} else {
				child.failLink = fail.children[r]
				child.output = append(child.output, child.failLink.output...)
			}
		}
	}
}

// FirstMatch returns the first blocklist phrase contained in text, scanning
// left to right, and whether any matched.
func (ps *PhraseSet) FirstMatch(text string) (string, bool) {
	ps.mu.RLock()
	root := ps.root
	ps.mu.RUnlock()

	cur := root
	for _, r := range strings.ToLower(text) {
		for cur != nil && cur.children[r] == nil {
			cur = cur.failLink
		}
		if cur == nil {
			cur = root
		} else {
			cur = cur.children[r]
		}
		if len(cur.output) > 0 {
			return cur.output[0], true
		}
	}
	return "", false
}

// HasMatch reports whether any blocklist phrase is contained in text.
func (ps *PhraseSet) HasMatch(text string) bool {
	_, ok := ps.FirstMatch(text)
	return ok
}

// Len returns the number of phrases in the set.
func (ps *PhraseSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.size
}
