package chat

import "testing"

func TestContent(t *testing.T) {
	m := &Message{Text: "hello"}
	if m.Content() != "hello" {
		t.Errorf("Content() = %q; want %q", m.Content(), "hello")
	}
	m = &Message{Caption: "caption only"}
	if m.Content() != "caption only" {
		t.Errorf("Content() = %q; want %q", m.Content(), "caption only")
	}
	m = &Message{Text: "text", Caption: "caption"}
	if m.Content() != "text" {
		t.Error("text should win over caption")
	}
}

func TestEntitySegment(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		entity Entity
		want   string
	}{
		{
			name:   "ascii slice",
			text:   "visit example.com today",
			entity: Entity{Kind: EntityURL, Offset: 6, Length: 11},
			want:   "example.com",
		},
		{
			name:   "offset counts utf16 units",
			text:   "🙂 example.com",
			entity: Entity{Kind: EntityURL, Offset: 3, Length: 11},
			want:   "example.com",
		},
		{
			name:   "length clamped to text end",
			text:   "short",
			entity: Entity{Kind: EntityURL, Offset: 0, Length: 50},
			want:   "short",
		},
		{
			name:   "offset past end",
			text:   "short",
			entity: Entity{Kind: EntityURL, Offset: 10, Length: 3},
			want:   "",
		},
		{
			name:   "zero length",
			text:   "short",
			entity: Entity{Kind: EntityURL, Offset: 0, Length: 0},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{Text: tt.text}
			if got := m.EntitySegment(tt.entity); got != tt.want {
				t.Errorf("EntitySegment() = %q; want %q", got, tt.want)
			}
		})
	}
}
