// Package ingest wires the extraction stages (spectrogram, peaks, hashing,
// feature vector) into both stores for one track: raw audio → A → B → D,
// then C → E, run one after the other.
package ingest

import (
	"context"
	"errors"

	"github.com/resonantlabs/cadence/internal/config"
	"github.com/resonantlabs/cadence/internal/dsp"
	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/similarity"
	"github.com/resonantlabs/cadence/internal/store"
)

// Pipeline ingests one track's decoded audio into both stores and keeps the
// live Similarity Engine snapshot in sync, so a track is searchable via
// both the exact-match and similarity paths as soon as Track returns.
type Pipeline struct {
	cfg       config.Config
	fpStore   store.FingerprintStore
	featStore store.FeatureStore
	engine    *similarity.Engine

	// WindowFrames/HopFrames, when both non-zero, switch long-track
	// ingestion to fingerprint.HashWindows instead of a single HashPeaks
	// pass, per SPEC_FULL.md §10's windowed multi-fingerprint extraction.
	WindowFrames int
	HopFrames    int
}

func New(cfg config.Config, fpStore store.FingerprintStore, featStore store.FeatureStore, engine *similarity.Engine) *Pipeline {
	return &Pipeline{cfg: cfg, fpStore: fpStore, featStore: featStore, engine: engine}
}

// Track computes and persists both representations for trackID. Either
// store failing still attempts the other; both errors are returned
// together via errors.Join-style wrapping so a caller sees the full
// picture rather than only the first failure.
func (p *Pipeline) Track(ctx context.Context, trackID uint64, samples []float64, sr int) error {
	frames := dsp.Spectrogram(samples, p.cfg.FFT, p.cfg.Hop)
	peaks := dsp.FindPeaks(frames, p.cfg.PeakNeighborhood, p.cfg.MinAmp, p.cfg.FPReduction)

	var hashes []fingerprint.Hash
	if p.WindowFrames > 0 && p.HopFrames > 0 {
		hashes = fingerprint.HashWindows(peaks, p.WindowFrames, p.HopFrames, p.cfg.ZoneStart, p.cfg.ZoneWidth, p.cfg.MaxPairs)
	} else {
		hashes = fingerprint.HashPeaks(peaks, p.cfg.ZoneStart, p.cfg.ZoneWidth, p.cfg.MaxPairs)
	}

	fpErr := p.fpStore.Insert(ctx, trackID, hashes)

	vector := features.Vector(samples, sr, p.cfg.FFT, p.cfg.Hop)
	var featErr error
	if features.Norm(vector) > 0 {
		featErr = p.featStore.Upsert(ctx, trackID, vector)
		if featErr == nil {
			p.engine.Put(trackID, vector)
		}
	}

	return errors.Join(fpErr, featErr)
}
