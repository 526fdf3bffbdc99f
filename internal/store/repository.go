package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/siegewar/perfctl/internal/errors"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
	"github.com/siegewar/perfctl/internal/siege"
)

type repository struct {
	db            *sql.DB
	cfg           Config
	mu            sync.Mutex
	buffer        []perf.Snapshot
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db); err != nil {
		db.Close()

		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	logger.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Store repository initialized")

	repo := &repository{
		db:            db,
		cfg:           cfg,
		buffer:        make([]perf.Snapshot, 0, cfg.BatchSize),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

// RecordSiegePerformance archives a finalized session record.
// Unbuffered: session ends are rare and must not be lost on crash.
func (r *repository) RecordSiegePerformance(record siege.Record) error {
	errFactory := errors.New()

	if _, err := r.db.Exec(insertSiegeRecordSQL,
		record.SessionID,
		record.StartTime.Unix(),
		record.EndTime.Unix(),
		record.AverageFPS,
		record.PeakLatencyMs,
		int64(boolToInt(record.Victory)),
	); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}

	return nil
}

// ArchiveSnapshot buffers a per-tick snapshot for batched insertion.
func (r *repository) ArchiveSnapshot(s perf.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, s)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

// RecentHistory returns up to count finalized records, newest first.
func (r *repository) RecentHistory(count int) ([]siege.Record, error) {
	errFactory := errors.New()

	rows, err := r.db.Query(`
        SELECT session_id, start_time, end_time, avg_fps, peak_latency_ms, victory
        FROM siege_records
        ORDER BY end_time DESC
        LIMIT ?
    `, count)
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer rows.Close()

	var records []siege.Record
	for rows.Next() {
		var (
			record     siege.Record
			start, end int64
			victory    int64
		)
		if err := rows.Scan(&record.SessionID, &start, &end,
			&record.AverageFPS, &record.PeakLatencyMs, &victory); err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}
		record.StartTime = time.Unix(start, 0)
		record.EndTime = time.Unix(end, 0)
		record.Victory = victory != 0
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	return records, nil
}

// AverageFPS returns the mean FPS across all archived sessions.
func (r *repository) AverageFPS() (float64, error) {
	return r.scalarQuery(`SELECT COALESCE(AVG(avg_fps), 0) FROM siege_records`)
}

// AverageLatency returns the mean peak latency across all sessions.
func (r *repository) AverageLatency() (float64, error) {
	return r.scalarQuery(`SELECT COALESCE(AVG(peak_latency_ms), 0) FROM siege_records`)
}

func (r *repository) scalarQuery(query string) (float64, error) {
	errFactory := errors.New()

	var value float64
	if err := r.db.QueryRow(query).Scan(&value); err != nil {
		return 0, errFactory.Wrap(ErrQueryFailed, err)
	}

	return value, nil
}

func (r *repository) Close() error {
	errFactory := errors.New()

	if r.flushTicker != nil {
		close(r.shutdownChan)
		r.flushTicker.Stop()
		<-r.flushDoneChan
	} else {
		r.mu.Lock()
		r.flush()
		r.mu.Unlock()
	}

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	logger.Info().Msg("Store repository closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			r.flush()
			r.mu.Unlock()
		case <-r.shutdownChan:
			r.mu.Lock()
			r.flush()
			r.mu.Unlock()

			return
		}
	}
}

func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to begin transaction")

		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertSnapshotSQL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			logger.Error().Err(err).Msg("Failed to roll back transaction")
		}

		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, s := range r.buffer {
		if _, err := stmt.Exec(
			s.Timestamp.Unix(),
			s.FPS,
			s.AverageFPS,
			s.MinimumFPS,
			s.FrameTimeMs,
			s.GPUTimeMs,
			s.PhysicalMemoryMB,
			s.NetworkLatencyMs,
			s.ZoneQueryMs,
		); err != nil {
			logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				logger.Error().Err(err).Msg("Failed to roll back transaction")
			}

			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error().Err(err).Msg("Failed to commit transaction")

		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Debug().Int("records", len(r.buffer)).Msg("Flushed snapshots to database")
	r.buffer = r.buffer[:0]

	return nil
}
