package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// songFeatureRow is the GORM model backing the song_features table
// (SPEC_FULL.md §6): one row per track, a unique index on track_id, and the
// vector stored as a pq.Float32Array so Postgres sees a native float4[]
// column instead of an opaque blob.
type songFeatureRow struct {
	TrackID      uint64 `gorm:"column:track_id;primaryKey;autoIncrement:false"`
	FeatureVector pq.Float32Array `gorm:"column:feature_vector;type:float4[]"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (songFeatureRow) TableName() string { return "song_features" }

// PostgresFeatureStore is the gorm-backed FeatureStore wire.
type PostgresFeatureStore struct {
	db *gorm.DB
}

func NewPostgresFeatureStore(dsn string) (*PostgresFeatureStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: opening gorm postgres connection: %w", err)
	}
	if err := db.AutoMigrate(&songFeatureRow{}); err != nil {
		return nil, fmt.Errorf("store: migrating song_features: %w", err)
	}
	return &PostgresFeatureStore{db: db}, nil
}

// Upsert sets or replaces the vector for trackID; created_at is driven by
// GORM's autoCreateTime on first insert, updated_at on every write.
func (s *PostgresFeatureStore) Upsert(ctx context.Context, trackID uint64, vector [features.VectorLen]float32) error {
	row := songFeatureRow{TrackID: trackID, FeatureVector: pq.Float32Array(vector[:])}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"feature_vector", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresFeatureStore) Get(ctx context.Context, trackID uint64) ([features.VectorLen]float32, bool, error) {
	var row songFeatureRow
	err := s.db.WithContext(ctx).First(&row, "track_id = ?", trackID).Error
	if err == gorm.ErrRecordNotFound {
		return [features.VectorLen]float32{}, false, nil
	}
	if err != nil {
		return [features.VectorLen]float32{}, false, xerr.New(xerr.KindStoreUnavailable, err)
	}
	return toVector(row.FeatureVector), true, nil
}

// LoadAll is a single unordered scan used once per process to prime the
// Similarity Engine's copy-on-write snapshot.
func (s *PostgresFeatureStore) LoadAll(ctx context.Context) (map[uint64][features.VectorLen]float32, error) {
	var rows []songFeatureRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, xerr.New(xerr.KindStoreUnavailable, err)
	}

	out := make(map[uint64][features.VectorLen]float32, len(rows))
	for _, row := range rows {
		out[row.TrackID] = toVector(row.FeatureVector)
	}
	return out, nil
}

func toVector(arr pq.Float32Array) [features.VectorLen]float32 {
	var v [features.VectorLen]float32
	for i := 0; i < features.VectorLen && i < len(arr); i++ {
		v[i] = arr[i]
	}
	return v
}
