package recognize

import (
	"context"
	"math"
	"testing"

	"github.com/resonantlabs/cadence/internal/apitypes"
	"github.com/resonantlabs/cadence/internal/blobstore"
	"github.com/resonantlabs/cadence/internal/catalog"
	"github.com/resonantlabs/cadence/internal/config"
	"github.com/resonantlabs/cadence/internal/dsp"
	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/match"
	"github.com/resonantlabs/cadence/internal/similarity"
	"github.com/resonantlabs/cadence/internal/store"
)

// stubLoader returns fixed samples regardless of path, so tests don't touch
// the filesystem decode boundary.
type stubLoader struct {
	samples []float64
	sr      int
	err     error
}

func (s stubLoader) Load(path string) ([]float64, int, error) { return s.samples, s.sr, s.err }

// stubBlobs hands back an in-memory "path" (unused by stubLoader) and
// records whether cleanup ran.
type stubBlobs struct {
	cleaned bool
}

func (b *stubBlobs) Open(ctx context.Context, id string) (string, func(), error) {
	return id, func() { b.cleaned = true }, nil
}

func sineWave(freqHz float64, seconds float64, sr int) []float64 {
	n := int(seconds * float64(sr))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sr))
	}
	return out
}

func newTestOrchestrator(t *testing.T, loader AudioLoader, fpStore store.FingerprintStore, engine *similarity.Engine, cat catalog.Lookup) (*Orchestrator, *stubBlobs) {
	t.Helper()
	cfg := config.Defaults()
	m := match.New(fpStore, cfg.MinVotes, 5)
	blobs := &stubBlobs{}
	return New(cfg, m, engine, cat, blobs, loader), blobs
}

func TestRecognizeExactMatchYieldsProbabilityOne(t *testing.T) {
	cfg := config.Defaults()
	wave := sineWave(440, 1.0, cfg.SR)

	frames := dsp.Spectrogram(wave, cfg.FFT, cfg.Hop)
	peaks := dsp.FindPeaks(frames, cfg.PeakNeighborhood, cfg.MinAmp, cfg.FPReduction)
	fps := fingerprint.HashPeaks(peaks, cfg.ZoneStart, cfg.ZoneWidth, cfg.MaxPairs)
	if len(fps) == 0 {
		t.Fatal("test setup produced zero fingerprints for a 1s 440Hz sine")
	}

	fpStore := store.NewMemoryFingerprintStore()
	if err := fpStore.Insert(context.Background(), 7, fps); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	loader := stubLoader{samples: wave, sr: cfg.SR}
	o, blobs := newTestOrchestrator(t, loader, fpStore, similarity.New(), nil)

	got := o.Recognize(context.Background(), "clip.wav")
	if got.Status != apitypes.StatusSuccess {
		t.Fatalf("status = %v, want SUCCESS: %+v", got.Status, got)
	}
	if len(got.Results) == 0 || got.Results[0].SongID != 7 {
		t.Fatalf("results = %+v, want track 7 first", got.Results)
	}
	if math.Abs(float64(got.Results[0].Probability)-1.0) > 1e-6 {
		t.Errorf("probability = %v, want 1.0", got.Results[0].Probability)
	}
	if !blobs.cleaned {
		t.Error("blob cleanup did not run")
	}
}

func TestRecognizeEmptyStoreIsNoMatch(t *testing.T) {
	cfg := config.Defaults()
	wave := sineWave(440, 1.0, cfg.SR)
	loader := stubLoader{samples: wave, sr: cfg.SR}
	o, blobs := newTestOrchestrator(t, loader, store.NewMemoryFingerprintStore(), similarity.New(), nil)

	got := o.Recognize(context.Background(), "clip.wav")
	if got.Status != apitypes.StatusNoMatch {
		t.Fatalf("status = %v, want NO_MATCH: %+v", got.Status, got)
	}
	if len(got.Results) != 0 {
		t.Errorf("results = %+v, want empty", got.Results)
	}
	if !blobs.cleaned {
		t.Error("blob cleanup did not run")
	}
}

func TestRecognizeFallsBackToSimilarityOnEmptyFingerprints(t *testing.T) {
	cfg := config.Defaults()
	tooShort := make([]float64, cfg.FFT/2) // shorter than N_FFT -> no peaks at all

	engine := similarity.New()
	var v [features.VectorLen]float32
	v[0] = 1.0
	engine.Put(42, v)

	loader := stubLoader{samples: tooShort, sr: cfg.SR}
	o, _ := newTestOrchestrator(t, loader, store.NewMemoryFingerprintStore(), engine, nil)

	got := o.Recognize(context.Background(), "clip.wav")
	// a clip this short also produces an all-zero feature vector (< one FFT
	// window of samples), so both paths come up empty -> NO_MATCH.
	if got.Status != apitypes.StatusNoMatch {
		t.Fatalf("status = %v, want NO_MATCH for degenerate audio", got.Status)
	}
}

func TestRecognizeEnrichesFromCatalog(t *testing.T) {
	cfg := config.Defaults()
	wave := sineWave(440, 1.0, cfg.SR)

	frames := dsp.Spectrogram(wave, cfg.FFT, cfg.Hop)
	peaks := dsp.FindPeaks(frames, cfg.PeakNeighborhood, cfg.MinAmp, cfg.FPReduction)
	fps := fingerprint.HashPeaks(peaks, cfg.ZoneStart, cfg.ZoneWidth, cfg.MaxPairs)

	fpStore := store.NewMemoryFingerprintStore()
	_ = fpStore.Insert(context.Background(), 7, fps)

	cat := catalog.NewMemoryLookup()
	cat.Put(catalog.Track{ID: 7, Title: "Test Track", ArtistName: "Test Artist"})

	loader := stubLoader{samples: wave, sr: cfg.SR}
	o, _ := newTestOrchestrator(t, loader, fpStore, similarity.New(), cat)

	got := o.Recognize(context.Background(), "clip.wav")
	if len(got.Results) == 0 || got.Results[0].Title != "Test Track" {
		t.Fatalf("results = %+v, want enriched title", got.Results)
	}
}

func TestRecognizeInputDecodeErrorIsFailure(t *testing.T) {
	loader := stubLoader{err: errDecode{}}
	o, blobs := newTestOrchestrator(t, loader, store.NewMemoryFingerprintStore(), similarity.New(), nil)

	got := o.Recognize(context.Background(), "broken.wav")
	if got.Status != apitypes.StatusFailure {
		t.Fatalf("status = %v, want FAILURE", got.Status)
	}
	if got.Error == "" {
		t.Error("expected a non-empty error message")
	}
	if !blobs.cleaned {
		t.Error("blob cleanup must run even on failure")
	}
}

type errDecode struct{}

func (errDecode) Error() string { return "bad container" }
