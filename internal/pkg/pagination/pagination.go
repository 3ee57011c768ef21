// Package pagination implements cursor-based pagination for the admin list
// endpoints (moderation events, blocklist).
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Cursor marks a position in a time-ordered listing.
type Cursor struct {
	ID int64     `json:"id,omitempty"`
	Ts time.Time `json:"ts,omitempty"`
}

// Encode encodes the cursor to an opaque base64 token.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

// Decode parses an opaque token back into a Cursor. An empty token decodes to
// nil (start of the listing).
func Decode(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}

// ClampLimit validates a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// Page is one page of a cursor listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// BuildPage trims an items slice fetched with limit+1 and builds the next
// cursor from the last retained item.
func BuildPage[T any](items []T, limit int, cursorOf func(T) *Cursor) *Page[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	page := &Page[T]{Items: items, HasMore: hasMore}
	if hasMore && len(items) > 0 {
		page.NextCursor = cursorOf(items[len(items)-1]).Encode()
	}
	return page
}
