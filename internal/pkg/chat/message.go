// Package chat defines the platform-neutral message abstraction consumed by
// the moderation core. The platform-integration layer maps its own update
// types onto these values; the core never talks to a chat API directly.
package chat

import "unicode/utf16"

// EntityKind classifies a message entity.
type EntityKind string

const (
	EntityURL      EntityKind = "url"
	EntityTextLink EntityKind = "text_link"
	EntityOther    EntityKind = "other"
)

// Entity is a structured annotation on a sub-range of the message text.
// Offset and Length are measured in UTF-16 code units against the original,
// unmodified text, which is how chat platforms report them.
type Entity struct {
	Kind   EntityKind `json:"kind"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	URL    string     `json:"url,omitempty"`
}

// Message is one incoming chat message, consumed read-only.
type Message struct {
	ChatID     int64    `json:"chat_id"`
	MessageID  int      `json:"message_id"`
	UserID     int64    `json:"user_id"`
	Text       string   `json:"text,omitempty"`
	Caption    string   `json:"caption,omitempty"`
	Entities   []Entity `json:"entities,omitempty"`
	IsEdit     bool     `json:"is_edit,omitempty"`
	HasMedia   bool     `json:"has_media,omitempty"`
	HasSticker bool     `json:"has_sticker,omitempty"`
}

// Content returns the message text, falling back to the caption.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// EntitySegment resolves an entity's offset/length against the original text
// in UTF-16 code units and returns the raw covered segment. Normalization can
// change string length, so slicing always happens before any normalization;
// callers normalize the extracted segment if they need to.
func (m *Message) EntitySegment(e Entity) string {
	units := utf16.Encode([]rune(m.Content()))
	if e.Offset < 0 || e.Length <= 0 || e.Offset >= len(units) {
		return ""
	}
	end := e.Offset + e.Length
	if end > len(units) {
		end = len(units)
	}
	return string(utf16.Decode(units[e.Offset:end]))
}
