// Package recognize chains the spectrogram, fingerprint, match, feature,
// and similarity stages into the single operation the task dispatcher
// submits: turn a blob id into a ranked, catalog-enriched result.
package recognize

import (
	"context"

	"github.com/resonantlabs/cadence/internal/apitypes"
	"github.com/resonantlabs/cadence/internal/blobstore"
	"github.com/resonantlabs/cadence/internal/catalog"
	"github.com/resonantlabs/cadence/internal/config"
	"github.com/resonantlabs/cadence/internal/dsp"
	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/match"
	"github.com/resonantlabs/cadence/internal/similarity"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// AudioLoader decodes a local path into canonical mono samples and the rate
// they were decoded at; internal/audio.Loader implements this.
type AudioLoader interface {
	Load(path string) (samples []float64, sampleRate int, err error)
}

// Strategy names which path produced a Candidate, after the source's
// ThresholdStrategy hierarchy (spec.md §9): Exact is the hash-vote path,
// Similarity the feature-vector fallback. Hybrid is never itself produced by
// Recognize — it names the Orchestrator's overall "exact, else similarity"
// behavior, not a third path a single query can take.
type Strategy int

const (
	Exact Strategy = iota
	Similarity
	Hybrid
)

// Orchestrator implements spec.md §4.H.
type Orchestrator struct {
	cfg     config.Config
	matcher *match.Matcher
	engine  *similarity.Engine
	catalog catalog.Lookup
	blobs   blobstore.Store
	loader  AudioLoader
}

func New(cfg config.Config, matcher *match.Matcher, engine *similarity.Engine, cat catalog.Lookup, blobs blobstore.Store, loader AudioLoader) *Orchestrator {
	return &Orchestrator{cfg: cfg, matcher: matcher, engine: engine, catalog: cat, blobs: blobs, loader: loader}
}

// Recognize runs the full algorithm against one submitted blob id. It never
// panics and never leaks the decoded blob's temp path: cleanup always runs,
// success or failure.
func (o *Orchestrator) Recognize(ctx context.Context, blobID string) apitypes.RecognitionResult {
	path, cleanup, err := o.blobs.Open(ctx, blobID)
	if err != nil {
		return failure(xerr.New(xerr.KindInputDecode, err))
	}
	defer cleanup()

	samples, sr, err := o.loader.Load(path)
	if err != nil {
		return failure(classify(err, xerr.KindInputDecode))
	}

	frames := dsp.Spectrogram(samples, o.cfg.FFT, o.cfg.Hop)
	peaks := dsp.FindPeaks(frames, o.cfg.PeakNeighborhood, o.cfg.MinAmp, o.cfg.FPReduction)
	fps := fingerprint.HashPeaks(peaks, o.cfg.ZoneStart, o.cfg.ZoneWidth, o.cfg.MaxPairs)

	if len(fps) > 0 {
		candidates, err := o.matcher.Match(ctx, fps)
		if err != nil {
			return failure(classify(err, xerr.KindStoreUnavailable))
		}
		if len(candidates) > 0 {
			return o.enrich(ctx, exactResults(candidates))
		}
	}

	return o.similarityFallback(ctx, samples, sr)
}

// similarityFallback is spec.md §4.H step 4: extract the perceptual vector,
// rank the feature map by weighted cosine, keep sim >= T_LOW, keep the top 3
// survivors, and softmax their raw similarities for calibrated
// probabilities that sum to 1.
func (o *Orchestrator) similarityFallback(ctx context.Context, samples []float64, sr int) apitypes.RecognitionResult {
	v := features.Vector(samples, sr, o.cfg.FFT, o.cfg.Hop)
	if features.Norm(v) == 0 {
		return apitypes.RecognitionResult{Status: apitypes.StatusNoMatch, Results: []apitypes.Candidate{}}
	}

	ranked := o.engine.SimilarTo(v, o.cfg.SimTopN)
	kept := make([]similarity.Ranked, 0, len(ranked))
	for _, r := range ranked {
		if r.Similarity >= o.cfg.SimThresholdLow {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return apitypes.RecognitionResult{Status: apitypes.StatusNoMatch, Results: []apitypes.Candidate{}}
	}

	const keepTop = 3
	if len(kept) > keepTop {
		kept = kept[:keepTop]
	}

	scores := make([]float64, len(kept))
	for i, r := range kept {
		scores[i] = r.Similarity
	}
	probs := similarity.Softmax(scores, o.cfg.SoftmaxTemp)

	results := make([]apitypes.Candidate, len(kept))
	for i, r := range kept {
		sim32 := float32(r.Similarity)
		results[i] = apitypes.Candidate{
			SongID:      r.TrackID,
			Probability: float32(probs[i]),
			Similarity:  &sim32,
		}
	}
	return o.enrich(ctx, apitypes.RecognitionResult{Status: apitypes.StatusSuccess, Results: results})
}

func exactResults(candidates []match.Candidate) apitypes.RecognitionResult {
	results := make([]apitypes.Candidate, len(candidates))
	for i, c := range candidates {
		score := uint32(c.Score)
		results[i] = apitypes.Candidate{
			SongID:      c.TrackID,
			Probability: float32(c.Probability),
			MatchScore:  &score,
		}
	}
	return apitypes.RecognitionResult{Status: apitypes.StatusSuccess, Results: results}
}

// enrich fills in catalog metadata for every surviving candidate. A track
// the catalog has nothing for keeps its place in the ranking with every
// metadata field left at its zero value, which json:",omitempty" drops
// from the wire response (spec.md §7, MetadataMissing).
func (o *Orchestrator) enrich(ctx context.Context, result apitypes.RecognitionResult) apitypes.RecognitionResult {
	if o.catalog == nil {
		return result
	}
	for i := range result.Results {
		track, ok, err := o.catalog.GetTrack(ctx, result.Results[i].SongID)
		if err != nil || !ok {
			continue
		}
		result.Results[i].Title = track.Title
		result.Results[i].ArtistName = track.ArtistName
		result.Results[i].AlbumName = track.AlbumName
		result.Results[i].AlbumImage = track.AlbumImage
		if track.ArtistID != 0 {
			id := track.ArtistID
			result.Results[i].ArtistID = &id
		}
		if track.AlbumID != 0 {
			id := track.AlbumID
			result.Results[i].AlbumID = &id
		}
	}
	return result
}

func failure(err error) apitypes.RecognitionResult {
	return apitypes.RecognitionResult{Status: apitypes.StatusFailure, Results: []apitypes.Candidate{}, Error: err.Error()}
}

// classify wraps err with fallback unless it is already one of the five
// classified kinds, so an error that crossed a component boundary already
// carrying a Kind is never re-labeled.
func classify(err error, fallback xerr.Kind) error {
	if _, ok := xerr.As(err); ok {
		return err
	}
	return xerr.New(fallback, err)
}
