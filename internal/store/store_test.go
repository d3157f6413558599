package store

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/machi/pkg/errors"
	"github.com/iamNilotpal/machi/pkg/geninfo"
	"github.com/iamNilotpal/machi/pkg/options"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, maxlen int, temp bool) *Store {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.Dir = t.TempDir()
	opts.MaxLen = maxlen
	opts.Temp = temp
	s, err := Open(&opts)
	require.NoError(t, err)
	return s
}

// TestSmokeAppendGetTrim mirrors scenario S1: a single append, a read, a
// trim, and a read that must then come back absent.
func TestSmokeAppendGetTrim(t *testing.T) {
	s := openTestStore(t, 37, true)
	defer s.Close()

	gen, offset, length, err := s.Append([]byte("1"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), gen)
	require.Equal(t, uint64(0), offset)
	require.Equal(t, uint64(1), length)

	got, err := s.Get(gen, offset, length)
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	require.NoError(t, s.Trim(gen, offset, length))

	got, err = s.Get(gen, offset, length)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestShuffledRoundTripAndTrim mirrors scenario S2: many entries appended
// in shuffled order round-trip correctly and all come back absent once trimmed.
func TestShuffledRoundTripAndTrim(t *testing.T) {
	s := openTestStore(t, 37, true)
	defer s.Close()

	const n = 683
	order := rand.New(rand.NewSource(1)).Perm(n)

	type locator struct{ gen, offset, length uint64 }
	locators := make(map[int]locator, n)

	for _, i := range order {
		payload := []byte(fmt.Sprintf("%d", i))
		gen, offset, length, err := s.Append(payload)
		require.NoError(t, err)
		locators[i] = locator{gen, offset, length}
	}

	for i, loc := range locators {
		got, err := s.Get(loc.gen, loc.offset, loc.length)
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("%d", i)), got)
	}

	for _, loc := range locators {
		require.NoError(t, s.Trim(loc.gen, loc.offset, loc.length))
	}

	for _, loc := range locators {
		got, err := s.Get(loc.gen, loc.offset, loc.length)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}

// TestPersistenceAcrossReopen mirrors scenario S3.
func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.Dir = dir
	opts.MaxLen = 29

	s, err := Open(&opts)
	require.NoError(t, err)

	_, _, _, err = s.Append([]byte("1"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(&opts)
	require.NoError(t, err)
	defer reopened.Close()

	count := 0
	var gotGen, gotOffset, gotLength uint64
	reopened.Keys(func(gen, offset, length uint64) bool {
		count++
		gotGen, gotOffset, gotLength = gen, offset, length
		return true
	})
	require.Equal(t, 1, count)

	got, err := reopened.Get(gotGen, gotOffset, gotLength)
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
}

// TestRotationAndReapAfterPlaceholderRecovery exercises scenario S4's setup:
// a leftover empty generation pair recovered as an untouched back
// generation, then enough appends to force exactly one rotation.
func TestRotationAndReapAfterPlaceholderRecovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(geninfo.IndexPath(dir, 1), nil, 0644))
	require.NoError(t, os.WriteFile(geninfo.DataPath(dir, 1), nil, 0644))

	opts := options.NewDefaultOptions()
	opts.Dir = dir
	opts.MaxLen = 29

	s, err := Open(&opts)
	require.NoError(t, err)
	require.Equal(t, uint64(2), s.gen, "front must start at max(existing)+1")

	type locator struct{ gen, offset, length uint64 }
	locators := make([]locator, 0, 30)
	for i := 0; i < 30; i++ {
		gen, offset, length, err := s.Append([]byte(fmt.Sprintf("%d", i)))
		require.NoError(t, err)
		locators = append(locators, locator{gen, offset, length})
	}

	require.Equal(t, uint64(3), s.gen, "exactly one rotation must have occurred")
	require.Len(t, s.back, 2, "untouched placeholder and the rotated-out full generation")

	matches, err := filepath.Glob(filepath.Join(dir, "*.machi"))
	require.NoError(t, err)
	require.Len(t, matches, 3, "placeholder gen 1, retired gen 2, front gen 3")

	for _, loc := range locators {
		require.NoError(t, s.Trim(loc.gen, loc.offset, loc.length))
	}

	count := 0
	s.Keys(func(gen, offset, length uint64) bool { count++; return true })
	require.Equal(t, 0, count)

	// gen 2 is fully trimmed and not the front, so it is reaped; gen 1 (never
	// touched) and gen 3 (the front, never reaped by trim) remain on disk.
	matches, err = filepath.Glob(filepath.Join(dir, "*.machi"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	require.NoError(t, s.Close())
}

// TestTempOpenFailsOnExistingFiles mirrors scenario S5.
func TestTempOpenFailsOnExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(geninfo.IndexPath(dir, 0), nil, 0644))
	require.NoError(t, os.WriteFile(geninfo.DataPath(dir, 0), nil, 0644))

	opts := options.NewDefaultOptions()
	opts.Dir = dir
	opts.Temp = true

	_, err := Open(&opts)
	require.Error(t, err)
	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeAlreadyExists, se.Code())
}

// TestRotationThreshold is invariant 4: after maxlen live appends in the
// front, the next append advances front.gen by exactly one.
func TestRotationThreshold(t *testing.T) {
	s := openTestStore(t, 3, true)
	defer s.Close()

	for i := 0; i < 3; i++ {
		gen, _, _, err := s.Append([]byte("x"))
		require.NoError(t, err)
		require.Equal(t, uint64(0), gen)
	}

	gen, _, _, err := s.Append([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), gen)
}

// TestOpenRejectsInvalidOptions exercises the Options.Validate path: Dir and
// MaxLen can reach Open unvalidated when Options is built by hand instead of
// through WithDir/WithMaxLen, which silently ignore bad overrides and so can
// never themselves produce an invalid value.
func TestOpenRejectsInvalidOptions(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.Dir = "   "
	_, err := Open(&opts)
	require.Error(t, err)
	ve, ok := errors.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "Dir", ve.Field())

	opts = options.NewDefaultOptions()
	opts.Dir = t.TempDir()
	opts.MaxLen = 0
	_, err = Open(&opts)
	require.Error(t, err)
	ve, ok = errors.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "MaxLen", ve.Field())
}

// TestEmptyGenerationReaping is invariant 5: a back generation whose live
// count falls to zero is removed from disk before Trim returns.
func TestEmptyGenerationReaping(t *testing.T) {
	s := openTestStore(t, 1, true)
	defer s.Close()

	gen, offset, length, err := s.Append([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), gen)

	// maxlen is 1, so the append above already rotated gen 0 into back.
	_, _, _, err = s.Append([]byte("y"))
	require.NoError(t, err)

	require.NoError(t, s.Trim(gen, offset, length))

	_, err = os.Stat(geninfo.IndexPath(s.dir, 0))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(geninfo.DataPath(s.dir, 0))
	require.True(t, os.IsNotExist(err))
}
