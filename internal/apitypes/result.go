// Package apitypes defines the wire-level JSON shape the Orchestrator
// returns, matching spec.md §6 exactly.
package apitypes

// Status is the top-level outcome of a recognition task.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusNoMatch Status = "NO_MATCH"
	StatusFailure Status = "FAILURE"
)

// Candidate is one ranked track in a RecognitionResult. MatchScore is set
// only on the exact-match path, Similarity only on the fallback path; the
// metadata fields are omitted entirely, never null-filled, when
// CatalogLookup has nothing for the track (spec.md §7, MetadataMissing).
type Candidate struct {
	SongID      uint64  `json:"song_id"`
	Probability float32 `json:"probability"`
	MatchScore  *uint32 `json:"match_score,omitempty"`
	Similarity  *float32 `json:"similarity,omitempty"`

	Title       string `json:"title,omitempty"`
	ArtistID    *uint64 `json:"artist_id,omitempty"`
	ArtistName  string `json:"artist_name,omitempty"`
	AlbumID     *uint64 `json:"album_id,omitempty"`
	AlbumName   string `json:"album_name,omitempty"`
	AlbumImage  string `json:"album_image,omitempty"`
}

// RecognitionResult is the full API return value for a recognition task.
// When Status is SUCCESS and Results is non-empty, probabilities sum to
// 1.0 within 1e-6.
type RecognitionResult struct {
	Status  Status      `json:"status"`
	Results []Candidate `json:"results"`
	Error   string      `json:"error,omitempty"`
}
