package generation

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// entry is the in-memory shadow of one 32-byte index record: everything
// Get/Trim need without re-reading the index file.
type entry struct {
	length   uint64 // payload length recorded at append time
	crc      uint32 // CRC-32/IEEE of the payload recorded at append time
	state    int32  // record.StateLive or record.StateTrimmed
	indexPos int64  // byte offset of this record within the index file
}

// Generation owns one <gen>.machi / <gen>.machd file pair: an append-only
// data log and a fixed-width index log recording, for every append, where
// its bytes live and whether they have since been trimmed.
type Generation struct {
	Gen uint64

	dir       string
	indexFile *os.File
	dataFile  *os.File

	index     map[uint64]*entry // keyed by data-file offset
	dataEnd   uint64
	indexEnd  int64
	liveCount int

	log    *zap.SugaredLogger
	closed atomic.Bool
}

// LiveCount returns the number of entries not yet trimmed.
func (g *Generation) LiveCount() int {
	return g.liveCount
}
