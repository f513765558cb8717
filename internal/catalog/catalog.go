// Package catalog looks up track metadata for recognition results. The
// recognition core only ever depends on the Lookup interface; everything
// else in this package is a reference adapter (spec.md §6, CatalogLookup).
package catalog

import "context"

// Track is the metadata CatalogLookup can return. Optional fields are plain
// values: an absent field reads as its zero value (0 or ""), so an id of 0
// and a missing id look the same to the caller.
type Track struct {
	ID         uint64
	Title      string
	ArtistID   uint64
	ArtistName string
	AlbumID    uint64
	AlbumName  string
	AlbumImage string
}

// Lookup resolves a track_id to metadata. A (_, false, nil) return means
// the catalog has nothing for this id — the caller keeps the candidate and
// omits metadata fields (spec.md §7, MetadataMissing), it does not fail
// the whole recognition.
type Lookup interface {
	GetTrack(ctx context.Context, id uint64) (Track, bool, error)
}
