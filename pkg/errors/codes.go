package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes opening, reading or writing a
	// generation's index or data file.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base taxonomy with the failure
// modes named in spec.md §7.
const (
	// ErrorCodeShortIO indicates a positional read or write returned fewer
	// bytes than requested. Always a hard error; never retried internally.
	ErrorCodeShortIO ErrorCode = "SHORT_IO"

	// ErrorCodeAlreadyExists indicates an exclusive-create failed, either
	// because a store was opened with Temp and stale generation files were
	// found, or because a generation number collided with an existing pair.
	ErrorCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrorCodeCorruptCRC indicates a payload read at its stored length did
	// not match the CRC-32 recorded for it at append time.
	ErrorCodeCorruptCRC ErrorCode = "CORRUPT_CRC"

	// ErrorCodeInvalidState indicates an index record's state field held
	// neither +1 (live) nor -1 (trimmed).
	ErrorCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrorCodeRecoveryFailed indicates that reopening an existing
	// generation pair failed: a gen mismatch in a replayed record, a
	// missing file, or a failed rename/copy during the index-file dance.
	ErrorCodeRecoveryFailed ErrorCode = "RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to
	// access the store directory or a generation's files.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)
