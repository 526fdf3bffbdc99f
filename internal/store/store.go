// Package store archives finalized siege records and per-tick
// snapshots in sqlite and serves player-level aggregate queries.
package store

import (
	"github.com/siegewar/perfctl/internal/errors"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
	"github.com/siegewar/perfctl/internal/siege"
)

// Repository defines the durable-store surface. The siege monitor
// writes records through its RecordSink subset; reporting reads the
// aggregate queries.
type Repository interface {
	RecordSiegePerformance(record siege.Record) error
	ArchiveSnapshot(s perf.Snapshot) error
	RecentHistory(count int) ([]siege.Record, error)
	AverageFPS() (float64, error)
	AverageLatency() (float64, error)
	Close() error
}

// No-op implementation used when persistence is disabled.
type noopRepository struct{}

// New returns a Repository for the given configuration, or a no-op
// one when persistence is disabled.
func New(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Persistence disabled, using no-op store")

		return &noopRepository{}, nil
	}

	return NewRepository(cfg)
}

func (*noopRepository) RecordSiegePerformance(siege.Record) error { return nil }
func (*noopRepository) ArchiveSnapshot(perf.Snapshot) error       { return nil }

func (*noopRepository) RecentHistory(int) ([]siege.Record, error) { return nil, nil }
func (*noopRepository) AverageFPS() (float64, error)              { return 0, nil }
func (*noopRepository) AverageLatency() (float64, error)          { return 0, nil }
func (*noopRepository) Close() error                              { return nil }
