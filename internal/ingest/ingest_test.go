package ingest

import (
	"context"
	"math"
	"testing"

	"github.com/resonantlabs/cadence/internal/config"
	"github.com/resonantlabs/cadence/internal/similarity"
	"github.com/resonantlabs/cadence/internal/store"
)

func sine(freqHz, seconds float64, sr int) []float64 {
	n := int(seconds * float64(sr))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sr))
	}
	return out
}

func TestTrackPopulatesBothStoresAndEngine(t *testing.T) {
	cfg := config.Defaults()
	fpStore := store.NewMemoryFingerprintStore()
	featStore := store.NewMemoryFeatureStore()
	engine := similarity.New()
	p := New(cfg, fpStore, featStore, engine)

	wave := sine(440, 1.0, cfg.SR)
	if err := p.Track(context.Background(), 7, wave, cfg.SR); err != nil {
		t.Fatalf("Track: %v", err)
	}

	n, err := fpStore.Count(context.Background(), 7)
	if err != nil || n == 0 {
		t.Fatalf("fingerprint count = %d, %v, want > 0", n, err)
	}

	_, ok, err := featStore.Get(context.Background(), 7)
	if err != nil || !ok {
		t.Fatalf("feature store Get = %v, %v, want found", ok, err)
	}

	// TopSimilar returns nil only for a seed the engine does not hold; with
	// track 7 as the only entry the result is an empty, non-nil slice.
	if got := engine.TopSimilar(7, 1); got == nil {
		t.Fatal("engine has no vector for track 7 after Track")
	}
}

func TestTrackSkipsFeatureStoreForDegenerateAudio(t *testing.T) {
	cfg := config.Defaults()
	fpStore := store.NewMemoryFingerprintStore()
	featStore := store.NewMemoryFeatureStore()
	engine := similarity.New()
	p := New(cfg, fpStore, featStore, engine)

	silence := make([]float64, cfg.SR*3)
	if err := p.Track(context.Background(), 1, silence, cfg.SR); err != nil {
		t.Fatalf("Track: %v", err)
	}

	if _, ok, _ := featStore.Get(context.Background(), 1); ok {
		t.Error("degenerate (all-silence) audio should not be upserted into the feature store")
	}
}
