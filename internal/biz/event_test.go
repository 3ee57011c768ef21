package biz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/chat"
	"biolinkbot/internal/pkg/linkdetect"
	"biolinkbot/internal/pkg/pagination"
)

type fakeEventRepo struct {
	nextID int64
	saved  []*ModerationEvent
	chats  int64
	users  int64
}

func (r *fakeEventRepo) Save(_ context.Context, e *ModerationEvent) (*ModerationEvent, error) {
	r.nextID++
	cp := *e
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.saved = append(r.saved, &cp)
	return &cp, nil
}

func (r *fakeEventRepo) List(_ context.Context, chatID int64, _ *pagination.Cursor, _ int) ([]*ModerationEvent, error) {
	if chatID == 0 {
		return r.saved, nil
	}
	var out []*ModerationEvent
	for _, e := range r.saved {
		if e.ChatID == chatID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) CountDistinctChats(_ context.Context) (int64, error) { return r.chats, nil }

func (r *fakeEventRepo) CountDistinctUsers(_ context.Context) (int64, error) { return r.users, nil }

type fakeAudit struct {
	published []*ModerationEvent
	err       error
}

func (a *fakeAudit) Publish(_ context.Context, e *ModerationEvent) error {
	if a.err != nil {
		return a.err
	}
	a.published = append(a.published, e)
	return nil
}

func TestRecordSavesAndPublishes(t *testing.T) {
	repo := &fakeEventRepo{}
	audit := &fakeAudit{}
	uc := NewEventUsecase(repo, audit, testLogger())

	msg := &chat.Message{ChatID: -100123, MessageID: 55, UserID: 777, Text: "spamword"}
	d := &Decision{Action: ActionDeleteBlocklist, BlockedWord: "spamword"}

	saved, err := uc.Record(context.Background(), msg, d)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved.ID == 0 {
		t.Error("saved event has no ID")
	}
	if saved.ChatID != -100123 || saved.MessageID != 55 || saved.UserID != 777 {
		t.Errorf("saved event = %+v; message fields not carried over", saved)
	}
	if saved.Action != "delete_blocklist" || saved.Detail != "spamword" {
		t.Errorf("saved action/detail = %q/%q", saved.Action, saved.Detail)
	}
	if len(audit.published) != 1 {
		t.Errorf("published %d events; want 1", len(audit.published))
	}
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	repo := &fakeEventRepo{}
	audit := &fakeAudit{err: errors.New("broker down")}
	uc := NewEventUsecase(repo, audit, testLogger())

	saved, err := uc.Record(context.Background(), &chat.Message{ChatID: 1, MessageID: 2}, &Decision{
		Action: ActionDeleteLink, LinkReason: linkdetect.Reason("pattern:url"),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved == nil || len(repo.saved) != 1 {
		t.Error("event not persisted despite publish failure")
	}
}

func TestDecisionDetail(t *testing.T) {
	verdict := &abuse.Verdict{IsAbusive: true, Confidence: 0.9, Reason: "api"}
	tests := []struct {
		name string
		d    Decision
		want func(string) bool
	}{
		{
			name: "blocklist carries the word",
			d:    Decision{Action: ActionDeleteBlocklist, BlockedWord: "spamword"},
			want: func(s string) bool { return s == "spamword" },
		},
		{
			name: "link carries the reason",
			d:    Decision{Action: ActionDeleteLink, LinkReason: linkdetect.Reason("entity:url")},
			want: func(s string) bool { return s == "entity:url" },
		},
		{
			name: "abuse carries the verdict json",
			d:    Decision{Action: ActionDeleteAbuse, Verdict: verdict},
			want: func(s string) bool {
				return strings.Contains(s, `"is_abusive":true`) && strings.Contains(s, `"confidence":0.9`)
			},
		},
		{
			name: "allow carries nothing",
			d:    Decision{Action: ActionAllow},
			want: func(s string) bool { return s == "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decisionDetail(&tt.d); !tt.want(got) {
				t.Errorf("decisionDetail = %q", got)
			}
		})
	}
}

func TestStats(t *testing.T) {
	repo := &fakeEventRepo{chats: 12, users: 34}
	uc := NewEventUsecase(repo, &fakeAudit{}, testLogger())

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.DistinctChats != 12 || stats.DistinctUsers != 34 {
		t.Errorf("stats = %+v; want {12 34}", stats)
	}
}
