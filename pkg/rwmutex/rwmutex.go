// Package rwmutex implements a reader/writer lock with optional reentrant
// reader semantics: the same goroutine may hold several read guards
// simultaneously, each released independently.
//
// Go has no stable public API for "the id of the calling goroutine" the way
// Python's threading.get_ident() does. This package derives one from the
// header line of runtime.Stack's output, which is the only place the
// runtime exposes a goroutine's numeric id.
package rwmutex

import (
	"bytes"
	stdErrors "errors"
	"runtime"
	"strconv"
	"sync"
)

// ErrNotReentrant is returned by RLock when the calling goroutine already
// holds a read guard on a non-reentrant RWMutex.
var ErrNotReentrant = stdErrors.New("rwmutex: goroutine already holds a read lock")

// Unlocker releases a guard acquired from RWMutex.
type Unlocker interface {
	Unlock()
}

// RWMutex is a condition-variable-based reader/writer lock. Unlike
// sync.RWMutex, it can reject (rather than silently allow) a second read
// acquisition by the same goroutine when constructed non-reentrant.
type RWMutex struct {
	mu        sync.Mutex
	cond      *sync.Cond
	reentrant bool
	writing   bool
	readers   map[int64]int // goroutine id -> number of live read guards it holds
}

// NewRWMutex creates a ready-to-use RWMutex. When reentrant is false,
// RLock fails for a goroutine that already holds a read guard on this lock.
func NewRWMutex(reentrant bool) *RWMutex {
	rw := &RWMutex{reentrant: reentrant, readers: make(map[int64]int)}
	rw.cond = sync.NewCond(&rw.mu)
	return rw
}

// RLock blocks until no writer guard is live, then returns a read guard.
// In non-reentrant mode it returns ErrNotReentrant instead of blocking
// forever when the calling goroutine already holds a read guard.
func (rw *RWMutex) RLock() (Unlocker, error) {
	id := goroutineID()

	rw.mu.Lock()
	defer rw.mu.Unlock()

	for rw.writing {
		rw.cond.Wait()
	}

	if !rw.reentrant && rw.readers[id] > 0 {
		return nil, ErrNotReentrant
	}

	rw.readers[id]++
	return &readGuard{rw: rw, gid: id}, nil
}

// Lock blocks until no reader or writer guard is live, then returns a write guard.
func (rw *RWMutex) Lock() Unlocker {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	for rw.writing || len(rw.readers) > 0 {
		rw.cond.Wait()
	}

	rw.writing = true
	return &writeGuard{rw: rw}
}

type readGuard struct {
	rw       *RWMutex
	gid      int64
	unlocked bool
}

func (g *readGuard) Unlock() {
	g.rw.mu.Lock()
	defer g.rw.mu.Unlock()

	if g.unlocked {
		panic("rwmutex: Unlock called on an already-unlocked read guard")
	}
	g.unlocked = true

	g.rw.readers[g.gid]--
	if g.rw.readers[g.gid] <= 0 {
		delete(g.rw.readers, g.gid)
	}
	if len(g.rw.readers) == 0 {
		g.rw.cond.Broadcast()
	}
}

type writeGuard struct {
	rw       *RWMutex
	unlocked bool
}

func (g *writeGuard) Unlock() {
	g.rw.mu.Lock()
	defer g.rw.mu.Unlock()

	if g.unlocked {
		panic("rwmutex: Unlock called on an already-unlocked write guard")
	}
	g.unlocked = true

	g.rw.writing = false
	g.rw.cond.Broadcast()
}

// goroutineID extracts the numeric id from the header line of
// runtime.Stack's output ("goroutine 123 [running]: ...").
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	b = bytes.TrimPrefix(b, []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return -1
	}

	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
