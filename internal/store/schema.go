package store

import (
	"database/sql"

	"github.com/siegewar/perfctl/internal/errors"
	"github.com/siegewar/perfctl/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS siege_records (
	       session_id       TEXT PRIMARY KEY,
	       start_time       INTEGER NOT NULL,
	       end_time         INTEGER NOT NULL,
	       avg_fps          REAL NOT NULL,
	       peak_latency_ms  REAL NOT NULL,
	       victory          INTEGER NOT NULL CHECK (victory IN (0, 1))
	   );
	   CREATE TABLE IF NOT EXISTS snapshots (
	       timestamp          INTEGER NOT NULL,
	       fps                REAL NOT NULL,
	       avg_fps            REAL NOT NULL,
	       min_fps            REAL NOT NULL,
	       frame_time_ms      REAL NOT NULL,
	       gpu_time_ms        REAL NOT NULL,
	       physical_memory_mb REAL NOT NULL,
	       network_latency_ms REAL NOT NULL,
	       zone_query_ms      REAL NOT NULL
	   );`

	insertSiegeRecordSQL = `
    INSERT INTO siege_records (
        session_id, start_time, end_time,
        avg_fps, peak_latency_ms, victory
    ) VALUES (?, ?, ?, ?, ?, ?)`

	insertSnapshotSQL = `
    INSERT INTO snapshots (
        timestamp, fps, avg_fps, min_fps,
        frame_time_ms, gpu_time_ms, physical_memory_mb,
        network_latency_ms, zone_query_ms
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	logger.Info().Int("version", SchemaVersion).Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}

	return exists, nil
}

// ValidateAndUpdateSchema initializes the schema on first open and
// verifies the version on subsequent opens.
func ValidateAndUpdateSchema(db *sql.DB) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	if version == 0 {
		return InitSchema(db)
	}

	if version != SchemaVersion {
		return errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}

	return nil
}
