package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one handled analyze request.
type AnalysisRecord struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	RequestID  string
	ImageHash  string
	Model      string
	StatusCode int
	Kind       string
	Verdict    string
	DurationMS int64
}

// Recorder receives exactly one record per handled request.
type Recorder interface {
	Record(ctx context.Context, rec AnalysisRecord) error
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, AnalysisRecord) error { return nil }

type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

const schemaSQL = `
create table if not exists analyses (
  id          uuid primary key,
  created_at  timestamptz not null default now(),
  request_id  text not null default '',
  image_hash  text not null default '',
  model       text not null default '',
  status_code integer not null,
  kind        text not null,
  verdict     text not null default '',
  duration_ms bigint not null default 0
);
create index if not exists analyses_image_hash_idx on analyses (image_hash, created_at desc);`

func (r *AnalysisRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schemaSQL)
	return err
}

// Record вставляет запись; пустые ID и CreatedAt заполняются здесь.
func (r *AnalysisRepo) Record(ctx context.Context, rec AnalysisRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const q = `
insert into analyses (
  id, created_at, request_id, image_hash, model,
  status_code, kind, verdict, duration_ms
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.DB.ExecContext(ctx, q,
		rec.ID, rec.CreatedAt, rec.RequestID, rec.ImageHash, rec.Model,
		rec.StatusCode, rec.Kind, rec.Verdict, rec.DurationMS,
	)
	return err
}

// Recent returns the newest records first. A non-empty imageHash narrows the
// result to one image.
func (r *AnalysisRepo) Recent(ctx context.Context, limit int, imageHash string) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
select id, created_at, request_id, image_hash, model,
       status_code, kind, verdict, duration_ms
from analyses
where ($1 = '' or image_hash = $1)
order by created_at desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, imageHash, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.RequestID, &rec.ImageHash, &rec.Model,
			&rec.StatusCode, &rec.Kind, &rec.Verdict, &rec.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeOlderThan удаляет старые записи, чтобы не раздувать БД.
func (r *AnalysisRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from analyses where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
