package store

import "github.com/siegewar/perfctl/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("store_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("store_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("store_schema_validation_failed")
	ErrTransactionFailed      = errors.ErrorCode("store_transaction_failed")

	// Storage Errors
	ErrStorageInit   = errors.ErrInitStore
	ErrStorageClose  = errors.ErrCloseStore
	ErrRecordFailed  = errors.ErrRecordStore
	ErrQueryFailed   = errors.ErrQueryStore
	ErrInvalidRecord = errors.ErrorCode("store_invalid_record")
)
