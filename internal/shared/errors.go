package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Fetch and service errors
	ErrFetchFailed        = fmt.Errorf("page fetch failed")
	ErrUnexpectedStatus   = fmt.Errorf("unexpected response status")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Storage errors
	ErrComparisonNotFound = fmt.Errorf("comparison not found")
	ErrDatabaseLocked     = fmt.Errorf("database is locked by another process")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
