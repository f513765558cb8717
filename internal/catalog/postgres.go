package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/resonantlabs/cadence/internal/xerr"
)

// PostgresLookup reads a flat `tracks` table — no migrations, no writes,
// no joins beyond the one query returns — grounded on the teacher's
// db/postgres.go connection-handling style, rebuilt around database/sql's
// pgx stdlib driver since this adapter only ever issues a single SELECT.
type PostgresLookup struct {
	db *sql.DB
}

func NewPostgresLookup(dsn string) (*PostgresLookup, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("catalog: pinging postgres: %w", err)
	}
	return &PostgresLookup{db: db}, nil
}

func (c *PostgresLookup) Close() error {
	return c.db.Close()
}

func (c *PostgresLookup) GetTrack(ctx context.Context, id uint64) (Track, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, title, artist_id, artist_name, album_id, album_name, album_image
		FROM tracks WHERE id = $1`, int64(id))

	var t Track
	var artistID, albumID sql.NullInt64
	var artistName, albumName, albumImage sql.NullString
	err := row.Scan(&t.ID, &t.Title, &artistID, &artistName, &albumID, &albumName, &albumImage)
	if err == sql.ErrNoRows {
		return Track{}, false, nil
	}
	if err != nil {
		return Track{}, false, xerr.New(xerr.KindStoreUnavailable, err)
	}

	t.ArtistID = uint64(artistID.Int64)
	t.ArtistName = artistName.String
	t.AlbumID = uint64(albumID.Int64)
	t.AlbumName = albumName.String
	t.AlbumImage = albumImage.String
	return t, true, nil
}
