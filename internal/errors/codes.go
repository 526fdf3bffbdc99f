package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Resource errors
	ErrResourceBusy      ErrorCode = "resource_busy"
	ErrResourceNotFound  ErrorCode = "resource_not_found"
	ErrResourceExhausted ErrorCode = "resource_exhausted"

	// Application errors
	ErrInitApp        ErrorCode = "init_app_failed"
	ErrMainLoop       ErrorCode = "main_loop_failed"
	ErrSampleFailed   ErrorCode = "sample_failed"
	ErrMirrorFailed   ErrorCode = "mirror_broadcast_failed"
	ErrExportReport   ErrorCode = "export_report_failed"
	ErrRevertSettings ErrorCode = "revert_settings_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Optimizer errors
	ErrSettingNotFound  ErrorCode = "setting_not_found"
	ErrApplyAction      ErrorCode = "apply_action_failed"
	ErrInvalidStrategy  ErrorCode = "invalid_strategy"
	ErrExperimentalOff  ErrorCode = "experimental_disabled"
	ErrInvalidThreshold ErrorCode = "invalid_threshold"

	// Storage errors
	ErrInitStore   ErrorCode = "init_store_failed"
	ErrRecordStore ErrorCode = "record_store_failed"
	ErrCloseStore  ErrorCode = "close_store_failed"
	ErrQueryStore  ErrorCode = "query_store_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrUnavailable:       "Service unavailable",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrResourceBusy:      "Resource is busy",
	ErrResourceNotFound:  "Resource not found",
	ErrResourceExhausted: "Resource exhausted",
	ErrOperationFailed:   "Operation failed",
	ErrTimeout:           "Operation timed out",
	ErrInvalidOperation:  "Invalid operation",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInitApp:           "Failed to initialize application",
	ErrMainLoop:          "Error in main loop",
	ErrSampleFailed:      "Failed to sample runtime metrics",
	ErrMirrorFailed:      "Failed to broadcast mirror snapshot",
	ErrExportReport:      "Failed to export performance report",
	ErrRevertSettings:    "Failed to revert optimized settings",
	ErrSettingNotFound:   "Setting does not exist in the configuration surface",
	ErrApplyAction:       "Failed to apply optimization action",
	ErrInvalidStrategy:   "Unknown optimization strategy",
	ErrExperimentalOff:   "Experimental optimizations are disabled",
	ErrInvalidThreshold:  "Invalid threshold configuration",
	ErrInitStore:         "Failed to initialize durable store",
	ErrRecordStore:       "Failed to record to durable store",
	ErrCloseStore:        "Failed to close durable store",
	ErrQueryStore:        "Failed to query durable store",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
