package store

import (
	"github.com/iamNilotpal/machi/internal/generation"
	"github.com/iamNilotpal/machi/pkg/rwmutex"
	"go.uber.org/zap"
)

// Store coordinates a single writable front generation and zero or more
// retired, read-and-trim-only back generations, rotating the front once it
// accumulates enough live entries and reaping back generations once every
// entry in them has been trimmed.
type Store struct {
	dir    string
	maxlen int
	temp   bool

	gen   uint64 // front's generation number
	front *generation.Generation
	back  map[uint64]*generation.Generation

	lock *rwmutex.RWMutex
	log  *zap.SugaredLogger
}
