package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// PostgresFingerprintStore is the FingerprintStore wire described in
// SPEC_FULL.md §6: a `fingerprints(hash, track_id, t_offset)` table with a
// B-Tree index on hash and a composite index on (hash, t_offset), grounded
// on the teacher's db/postgres.go batched-insert style but rebuilt around
// pgx v5's pool and CopyFrom instead of database/sql.
type PostgresFingerprintStore struct {
	pool *pgxpool.Pool
}

func NewPostgresFingerprintStore(ctx context.Context, dsn string) (*PostgresFingerprintStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}
	s := &PostgresFingerprintStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresFingerprintStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fingerprints (
			hash      BIGINT NOT NULL,
			track_id  BIGINT NOT NULL,
			t_offset  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints (hash);
		CREATE INDEX IF NOT EXISTS idx_fingerprints_hash_offset ON fingerprints (hash, t_offset);
		CREATE INDEX IF NOT EXISTS idx_fingerprints_track_id ON fingerprints (track_id);
	`)
	if err != nil {
		return fmt.Errorf("store: migrating fingerprints table: %w", err)
	}
	return nil
}

func (s *PostgresFingerprintStore) Close() {
	s.pool.Close()
}

// Insert deletes every existing posting for trackID and bulk-inserts the
// new set inside one transaction, so callers never observe a half-updated
// track (spec.md §3 Ownership, §5 Ordering).
func (s *PostgresFingerprintStore) Insert(ctx context.Context, trackID uint64, hashes []fingerprint.Hash) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fingerprints WHERE track_id = $1`, int64(trackID)); err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}

	if len(hashes) > 0 {
		rows := make([][]any, len(hashes))
		for i, h := range hashes {
			rows[i] = []any{int64(h.Value), int64(trackID), int32(h.TAnchor)}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"fingerprints"},
			[]string{"hash", "track_id", "t_offset"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return xerr.New(xerr.KindStoreUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresFingerprintStore) GetByHashes(ctx context.Context, hashes []uint64) (map[uint64][]Posting, error) {
	out := make(map[uint64][]Posting)
	if len(hashes) == 0 {
		return out, nil
	}

	signed := make([]int64, len(hashes))
	for i, h := range hashes {
		signed[i] = int64(h)
	}

	rows, err := s.pool.Query(ctx, `SELECT hash, track_id, t_offset FROM fingerprints WHERE hash = ANY($1)`, signed)
	if err != nil {
		return nil, xerr.New(xerr.KindStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, trackID int64
		var offset int32
		if err := rows.Scan(&hash, &trackID, &offset); err != nil {
			return nil, xerr.New(xerr.KindStoreUnavailable, err)
		}
		key := uint64(hash)
		out[key] = append(out[key], Posting{TrackID: uint64(trackID), TOffset: uint32(offset)})
	}
	if err := rows.Err(); err != nil {
		return nil, xerr.New(xerr.KindStoreUnavailable, err)
	}
	return out, nil
}

func (s *PostgresFingerprintStore) Delete(ctx context.Context, trackID uint64) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fingerprints WHERE track_id = $1`, int64(trackID))
	if err != nil {
		return 0, xerr.New(xerr.KindStoreUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresFingerprintStore) Count(ctx context.Context, trackID uint64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fingerprints WHERE track_id = $1`, int64(trackID)).Scan(&count)
	if err != nil {
		return 0, xerr.New(xerr.KindStoreUnavailable, err)
	}
	return count, nil
}
