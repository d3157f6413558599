package errors

// CorruptionError is a specialized error type for index-record integrity
// failures: a CRC mismatch on read, or an index state field that is neither
// +1 (live) nor -1 (trimmed).
type CorruptionError struct {
	*baseError
	gen         uint64
	offset      uint64
	expectedCRC uint32
	actualCRC   uint32
	state       int32
}

// NewCorruptionError creates a new corruption-specific error.
func NewCorruptionError(err error, code ErrorCode, msg string) *CorruptionError {
	return &CorruptionError{baseError: NewBaseError(err, code, msg)}
}

// WithGen records which generation held the offending record.
func (ce *CorruptionError) WithGen(gen uint64) *CorruptionError {
	ce.gen = gen
	return ce
}

// WithOffset records the data-file offset of the offending entry.
func (ce *CorruptionError) WithOffset(offset uint64) *CorruptionError {
	ce.offset = offset
	return ce
}

// WithCRCs records the CRC recorded at append time and the CRC recomputed
// from the bytes actually read back.
func (ce *CorruptionError) WithCRCs(expected, actual uint32) *CorruptionError {
	ce.expectedCRC = expected
	ce.actualCRC = actual
	return ce
}

// WithState records the offending index-record state value.
func (ce *CorruptionError) WithState(state int32) *CorruptionError {
	ce.state = state
	return ce
}

// Gen returns the generation that held the offending record.
func (ce *CorruptionError) Gen() uint64 { return ce.gen }

// Offset returns the data-file offset of the offending entry.
func (ce *CorruptionError) Offset() uint64 { return ce.offset }

// CRCs returns the expected (append-time) and actual (recomputed) CRC-32 values.
func (ce *CorruptionError) CRCs() (expected, actual uint32) { return ce.expectedCRC, ce.actualCRC }

// State returns the offending index-record state value.
func (ce *CorruptionError) State() int32 { return ce.state }
