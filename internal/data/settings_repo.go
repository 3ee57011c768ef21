package data

import (
	"context"
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

type settingsRepo struct {
	data *Data
	log  *log.Helper
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(data *Data, logger log.Logger) biz.SettingsRepo {
	return &settingsRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *settingsRepo) CreateBlockedPhrase(ctx context.Context, p *biz.BlockedPhrase) (*biz.BlockedPhrase, error) {
	created := *p
	err := r.data.Pool.QueryRow(ctx,
		`INSERT INTO blocked_phrases (phrase, added_by) VALUES ($1, $2)
		 ON CONFLICT (phrase) DO UPDATE SET added_by = EXCLUDED.added_by
		 RETURNING id, created_at`,
		p.Phrase, p.AddedBy,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *settingsRepo) DeleteBlockedPhrase(ctx context.Context, phrase string) error {
	_, err := r.data.Pool.Exec(ctx,
		`DELETE FROM blocked_phrases WHERE lower(phrase) = lower($1)`, phrase)
	return err
}

// ListBlockedPhrases returns up to limit+1 rows, newest first, so the
// caller can build a cursor page.
func (r *settingsRepo) ListBlockedPhrases(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*biz.BlockedPhrase, error) {
	rows, err := queryAfterCursor(ctx, r.data.Pool, cursor, limit,
		`SELECT id, phrase, added_by, created_at FROM blocked_phrases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlockedPhrases(rows)
}

func (r *settingsRepo) AllBlockedPhrases(ctx context.Context) ([]*biz.BlockedPhrase, error) {
	rows, err := r.data.Pool.Query(ctx,
		`SELECT id, phrase, added_by, created_at FROM blocked_phrases ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBlockedPhrases(rows)
}

func (r *settingsRepo) CreateWhitelistTerm(ctx context.Context, t *biz.WhitelistTerm) (*biz.WhitelistTerm, error) {
	created := *t
	err := r.data.Pool.QueryRow(ctx,
		`INSERT INTO whitelist_terms (term, added_by) VALUES ($1, $2)
		 ON CONFLICT (term) DO UPDATE SET added_by = EXCLUDED.added_by
		 RETURNING id, created_at`,
		t.Term, t.AddedBy,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *settingsRepo) DeleteWhitelistTerm(ctx context.Context, term string) error {
	_, err := r.data.Pool.Exec(ctx,
		`DELETE FROM whitelist_terms WHERE term = lower($1)`, term)
	return err
}

// ListWhitelistTerms returns up to limit+1 rows, newest first.
func (r *settingsRepo) ListWhitelistTerms(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*biz.WhitelistTerm, error) {
	rows, err := queryAfterCursor(ctx, r.data.Pool, cursor, limit,
		`SELECT id, term, added_by, created_at FROM whitelist_terms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWhitelistTerms(rows)
}

func (r *settingsRepo) AllWhitelistTerms(ctx context.Context) ([]*biz.WhitelistTerm, error) {
	rows, err := r.data.Pool.Query(ctx,
		`SELECT id, term, added_by, created_at FROM whitelist_terms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWhitelistTerms(rows)
}

func (r *settingsRepo) UpsertChatDelay(ctx context.Context, d *biz.ChatDelay) error {
	_, err := r.data.Pool.Exec(ctx,
		`INSERT INTO chat_delays (chat_id, kind, mode, delay_seconds, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (chat_id, kind) DO UPDATE
		 SET mode = EXCLUDED.mode, delay_seconds = EXCLUDED.delay_seconds, updated_at = now()`,
		d.ChatID, string(d.Kind), int16(d.Mode), int64(d.Delay/time.Second))
	return err
}

func (r *settingsRepo) DeleteChatDelay(ctx context.Context, chatID int64, kind biz.DelayKind) error {
	_, err := r.data.Pool.Exec(ctx,
		`DELETE FROM chat_delays WHERE chat_id = $1 AND kind = $2`, chatID, string(kind))
	return err
}

func (r *settingsRepo) AllChatDelays(ctx context.Context) ([]*biz.ChatDelay, error) {
	rows, err := r.data.Pool.Query(ctx,
		`SELECT chat_id, kind, mode, delay_seconds, updated_at FROM chat_delays`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var delays []*biz.ChatDelay
	for rows.Next() {
		var (
			d       biz.ChatDelay
			kind    string
			mode    int16
			seconds int64
		)
		if err := rows.Scan(&d.ChatID, &kind, &mode, &seconds, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Kind = biz.DelayKind(kind)
		d.Mode = biz.DelayMode(mode)
		d.Delay = time.Duration(seconds) * time.Second
		delays = append(delays, &d)
	}
	return delays, rows.Err()
}

// queryAfterCursor runs a keyset query ordered by id descending. It
// fetches one row past the limit so callers can detect further pages.
func queryAfterCursor(ctx context.Context, pool querier, cursor *pagination.Cursor, limit int, baseQuery string) (pgx.Rows, error) {
	limit = pagination.ClampLimit(limit)
	if cursor != nil {
		return pool.Query(ctx, baseQuery+` WHERE id < $1 ORDER BY id DESC LIMIT $2`,
			cursor.ID, limit+1)
	}
	return pool.Query(ctx, baseQuery+` ORDER BY id DESC LIMIT $1`, limit+1)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanBlockedPhrases(rows pgx.Rows) ([]*biz.BlockedPhrase, error) {
	var out []*biz.BlockedPhrase
	for rows.Next() {
		var p biz.BlockedPhrase
		if err := rows.Scan(&p.ID, &p.Phrase, &p.AddedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanWhitelistTerms(rows pgx.Rows) ([]*biz.WhitelistTerm, error) {
	var out []*biz.WhitelistTerm
	for rows.Next() {
		var t biz.WhitelistTerm
		if err := rows.Scan(&t.ID, &t.Term, &t.AddedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
