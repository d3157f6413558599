// Package store implements the generation rotation and reaping policy
// sitting on top of internal/generation: exactly one writable front
// generation at a time, and a set of retired back generations kept around
// only until every entry inside them has been trimmed.
package store

import (
	"github.com/iamNilotpal/machi/internal/generation"
	"github.com/iamNilotpal/machi/pkg/errors"
	"github.com/iamNilotpal/machi/pkg/filesys"
	"github.com/iamNilotpal/machi/pkg/geninfo"
	"github.com/iamNilotpal/machi/pkg/options"
	"github.com/iamNilotpal/machi/pkg/rwmutex"
)

// Open opens a store rooted at opts.Dir. If opts.Temp is set and any
// generation files already exist there, Open fails outright rather than
// adopting them. Otherwise every existing generation is recovered into the
// back set and a fresh front is created one generation number past the
// highest one found.
func Open(opts *options.Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := filesys.CreateDir(opts.Dir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, opts.Dir)
	}

	if opts.Temp {
		exists, err := geninfo.HasAnyGenerationFiles(opts.Dir)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.NewStorageError(
				nil, errors.ErrorCodeAlreadyExists, "store opened with Temp but generation files already exist",
			).WithPath(opts.Dir)
		}
	}

	gens, err := geninfo.ScanGenerations(opts.Dir, opts.Logger)
	if err != nil {
		return nil, err
	}

	back := make(map[uint64]*generation.Generation, len(gens))
	var nextGen uint64
	for g := range gens {
		gen, err := generation.OpenRecovery(opts.Dir, g, opts.Logger)
		if err != nil {
			for _, opened := range back {
				opened.Close(false)
			}
			return nil, err
		}
		back[g] = gen
		if g+1 > nextGen {
			nextGen = g + 1
		}
	}

	front, err := generation.OpenFresh(opts.Dir, nextGen, opts.Logger)
	if err != nil {
		for _, opened := range back {
			opened.Close(false)
		}
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Infow("opened store", "dir", opts.Dir, "frontGen", nextGen, "backGens", len(back))
	}

	return &Store{
		dir:    opts.Dir,
		maxlen: opts.MaxLen,
		temp:   opts.Temp,
		gen:    nextGen,
		front:  front,
		back:   back,
		lock:   rwmutex.NewRWMutex(true),
		log:    opts.Logger,
	}, nil
}

// Append writes data to the front generation, rotating it to the back set
// (or closing it outright, if it has no live entries of its own) once its
// live count reaches maxlen.
func (s *Store) Append(data []byte) (gen, offset, length uint64, err error) {
	guard := s.lock.Lock()
	defer guard.Unlock()

	gen = s.gen
	offset, length, err = s.front.Append(data)
	if err != nil {
		return 0, 0, 0, err
	}

	if s.front.LiveCount() >= s.maxlen {
		retiring := s.front
		retiringGen := s.gen
		newGenNum := s.gen + 1

		// Open the new front before mutating any store state, so a failure
		// here leaves front/back/gen exactly as they were.
		newFront, ferr := generation.OpenFresh(s.dir, newGenNum, s.log)
		if ferr != nil {
			return 0, 0, 0, ferr
		}

		if retiring.LiveCount() == 0 {
			retiring.Close(s.temp)
		} else {
			s.back[retiringGen] = retiring
		}
		s.gen = newGenNum
		s.front = newFront

		if s.log != nil {
			s.log.Infow("rotated front generation", "retiredGen", retiringGen, "newFrontGen", s.gen)
		}
	}

	return gen, offset, length, nil
}

// Get routes to the front generation when gen matches its number, else
// looks it up among the back generations. An unknown gen, like an unknown
// offset within a known gen, returns (nil, nil).
func (s *Store) Get(gen, offset, length uint64) ([]byte, error) {
	guard, err := s.lock.RLock()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	target := s.generationFor(gen)
	if target == nil {
		return nil, nil
	}
	return target.Get(offset, length)
}

// Trim marks an entry as no longer live. Once a back generation's live
// count reaches zero as a result, it is closed with removal and dropped
// from the back set.
func (s *Store) Trim(gen, offset, length uint64) error {
	guard := s.lock.Lock()
	defer guard.Unlock()

	target := s.generationFor(gen)
	if target == nil {
		return nil
	}

	trimmed, err := target.Trim(offset, length)
	if err != nil || !trimmed {
		return err
	}

	if gen != s.gen && target.LiveCount() == 0 {
		target.Close(true)
		delete(s.back, gen)
		if s.log != nil {
			s.log.Infow("reaped back generation", "gen", gen)
		}
	}

	return nil
}

// Keys enumerates every live entry across the front and every back
// generation, stopping early if yield returns false.
func (s *Store) Keys(yield func(gen, offset, length uint64) bool) {
	guard, err := s.lock.RLock()
	if err != nil {
		return
	}
	defer guard.Unlock()

	done := false
	s.front.Keys(func(gen, offset, length uint64) bool {
		if !yield(gen, offset, length) {
			done = true
			return false
		}
		return true
	})
	if done {
		return
	}

	for _, g := range s.back {
		stop := false
		g.Keys(func(gen, offset, length uint64) bool {
			if !yield(gen, offset, length) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// Close closes the front and every back generation. Each is removed from
// disk if it has no live entries left, or if the store was opened Temp.
func (s *Store) Close() error {
	guard := s.lock.Lock()
	defer guard.Unlock()

	s.front.Close(s.temp)
	for gen, g := range s.back {
		g.Close(s.temp)
		delete(s.back, gen)
	}

	if s.log != nil {
		s.log.Infow("closed store", "dir", s.dir)
	}

	return nil
}

func (s *Store) generationFor(gen uint64) *generation.Generation {
	if gen == s.gen {
		return s.front
	}
	return s.back[gen]
}
