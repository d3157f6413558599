package errors

// StorageError is a specialized error type for generation I/O failures.
// It embeds baseError to inherit all the standard error functionality, then adds
// generation-specific fields that help pinpoint exactly where problems occurred.
type StorageError struct {
	*baseError
	gen      uint64 // Which generation was being accessed when the error occurred.
	offset   uint64 // Byte offset within the generation where the problem happened.
	fileName string // Name of the file that caused the issue.
	path     string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithGen sets which generation was involved in the error.
func (se *StorageError) WithGen(gen uint64) *StorageError {
	se.gen = gen
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset uint64) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Gen returns the generation identifier where the error occurred.
func (se *StorageError) Gen() uint64 {
	return se.gen
}

// Offset returns the byte offset within the generation where the error happened.
// Combined with Gen, this gives you the exact location of the problem.
func (se *StorageError) Offset() uint64 {
	return se.offset
}

// FileName returns the name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
