// Package generation implements one append-and-trim generation: an
// append-only data file paired with a fixed-width index file recording,
// for every append, where its payload lives and whether it has been
// trimmed since.
package generation

import (
	"fmt"
	"io"
	"os"

	"github.com/iamNilotpal/machi/internal/record"
	"github.com/iamNilotpal/machi/pkg/errors"
	"github.com/iamNilotpal/machi/pkg/filesys"
	"github.com/iamNilotpal/machi/pkg/geninfo"
	"go.uber.org/zap"
)

// OpenFresh creates a brand-new generation: both files are created with
// O_CREATE|O_EXCL, so a collision with an existing generation surfaces as
// ErrorCodeAlreadyExists rather than silently truncating anything.
func OpenFresh(dir string, gen uint64, log *zap.SugaredLogger) (*Generation, error) {
	indexPath := geninfo.IndexPath(dir, gen)
	dataPath := geninfo.DataPath(dir, gen)

	indexFile, err := os.OpenFile(indexPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, classifyOpenErr(err, gen, indexPath)
	}

	dataFile, err := os.OpenFile(dataPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		indexFile.Close()
		os.Remove(indexPath)
		return nil, classifyOpenErr(err, gen, dataPath)
	}

	if log != nil {
		log.Infow("opened fresh generation", "gen", gen, "indexPath", indexPath, "dataPath", dataPath)
	}

	return &Generation{
		Gen:       gen,
		dir:       dir,
		indexFile: indexFile,
		dataFile:  dataFile,
		index:     make(map[uint64]*entry),
		log:       log,
	}, nil
}

// OpenRecovery reopens a generation left behind by a prior process,
// tolerating a torn write at the tail of its index file. It implements the
// rename-copy-replay dance: truncate the index to the nearest complete
// 32-byte record, rename it aside, create a fresh index file, copy the
// truncated contents back in byte-for-byte, then replay every record to
// rebuild the in-memory map before opening the data file read-only.
func OpenRecovery(dir string, gen uint64, log *zap.SugaredLogger) (*Generation, error) {
	indexPath := geninfo.IndexPath(dir, gen)
	dataPath := geninfo.DataPath(dir, gen)
	bakPath := geninfo.BakPath(dir, gen)

	indexStat, err := os.Stat(indexPath)
	if err != nil {
		return nil, recoveryErr(err, gen, "failed to stat index file")
	}
	indexEnd := (indexStat.Size() / record.Size) * record.Size

	dataStat, err := os.Stat(dataPath)
	if err != nil {
		return nil, recoveryErr(err, gen, "failed to stat data file")
	}
	dataEnd := uint64(dataStat.Size())

	if err := os.Rename(indexPath, bakPath); err != nil {
		return nil, recoveryErr(err, gen, "failed to rename index file aside for recovery")
	}

	bakFile, err := os.OpenFile(bakPath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, recoveryErr(err, gen, "failed to open backup index file")
	}
	defer bakFile.Close()

	indexFile, err := os.OpenFile(indexPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, recoveryErr(err, gen, "failed to create fresh index file during recovery")
	}

	if indexEnd > 0 {
		if _, err := io.CopyN(indexFile, bakFile, indexEnd); err != nil {
			indexFile.Close()
			return nil, recoveryErr(err, gen, "failed to copy index contents during recovery")
		}
	}

	index := make(map[uint64]*entry)
	liveCount := 0
	buf := make([]byte, indexEnd)
	if _, err := indexFile.ReadAt(buf, 0); err != nil && err != io.EOF {
		indexFile.Close()
		return nil, recoveryErr(err, gen, "failed to read replayed index contents")
	}

	for pos := int64(0); pos < indexEnd; pos += record.Size {
		var raw [record.Size]byte
		copy(raw[:], buf[pos:pos+record.Size])
		rec := record.Unmarshal(raw)

		if rec.Gen != gen {
			indexFile.Close()
			return nil, errors.NewStorageError(
				fmt.Errorf("record at index position %d belongs to generation %d, expected %d", pos, rec.Gen, gen),
				errors.ErrorCodeRecoveryFailed,
				"recovery encountered a generation mismatch",
			).WithGen(gen).WithOffset(uint64(pos))
		}

		if existing, ok := index[rec.Offset]; ok && existing.state == record.StateLive && rec.State == record.StateTrimmed {
			liveCount--
		} else if !ok && rec.State == record.StateLive {
			liveCount++
		}

		index[rec.Offset] = &entry{length: rec.Length, crc: rec.CRC32, state: rec.State, indexPos: pos}
	}

	dataFile, err := os.OpenFile(dataPath, os.O_RDONLY, 0644)
	if err != nil {
		indexFile.Close()
		return nil, recoveryErr(err, gen, "failed to open data file read-only after recovery")
	}

	// The bak file is only transient scaffolding for the rename-copy dance;
	// it should not exist at steady state once recovery has succeeded.
	os.Remove(bakPath)

	if log != nil {
		log.Infow("recovered generation",
			"gen", gen, "indexEnd", indexEnd, "dataEnd", dataEnd, "liveCount", liveCount)
	}

	return &Generation{
		Gen:       gen,
		dir:       dir,
		indexFile: indexFile,
		dataFile:  dataFile,
		index:     index,
		dataEnd:   dataEnd,
		indexEnd:  indexEnd,
		liveCount: liveCount,
		log:       log,
	}, nil
}

// Append writes data to the end of the data file and records a live index
// entry for it, returning the offset and length a caller needs to Get it
// back. Callers must serialize Append against concurrent Append/Trim/Close
// on the same Generation; the lock lives one layer up, in Store.
func (g *Generation) Append(data []byte) (offset, length uint64, err error) {
	offset = g.dataEnd
	length = uint64(len(data))

	n, werr := g.dataFile.WriteAt(data, int64(offset))
	if werr != nil {
		return 0, 0, errors.NewStorageError(werr, errors.ErrorCodeIO, "failed to write payload").
			WithGen(g.Gen).WithOffset(offset)
	}
	if uint64(n) != length {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodeShortIO, "short write to data file").
			WithGen(g.Gen).WithOffset(offset).
			WithDetail("wanted", length).WithDetail("wrote", n)
	}

	crc := record.Checksum(data)
	rec := record.Record{Gen: g.Gen, Offset: offset, Length: length, CRC32: crc, State: record.StateLive}
	raw := record.Marshal(rec)

	indexPos := g.indexEnd
	n2, werr := g.indexFile.WriteAt(raw[:], indexPos)
	if werr != nil {
		return 0, 0, errors.NewStorageError(werr, errors.ErrorCodeIO, "failed to write index record").
			WithGen(g.Gen).WithOffset(offset)
	}
	if n2 != record.Size {
		return 0, 0, errors.NewStorageError(nil, errors.ErrorCodeShortIO, "short write to index file").
			WithGen(g.Gen).WithOffset(offset).
			WithDetail("wanted", record.Size).WithDetail("wrote", n2)
	}

	g.index[offset] = &entry{length: length, crc: crc, state: record.StateLive, indexPos: indexPos}
	g.liveCount++
	g.dataEnd += length
	g.indexEnd += record.Size

	return offset, length, nil
}

// Get returns the payload stored at offset, or (nil, nil) if the offset is
// unknown or was trimmed. A CRC mismatch is only checked when length
// matches the length recorded at append time.
func (g *Generation) Get(offset, length uint64) ([]byte, error) {
	e, ok := g.index[offset]
	if !ok || e.state == record.StateTrimmed {
		return nil, nil
	}
	if e.state != record.StateLive {
		return nil, errors.NewCorruptionError(nil, errors.ErrorCodeInvalidState, "index record has an invalid state").
			WithGen(g.Gen).WithOffset(offset).WithState(e.state)
	}

	buf := make([]byte, e.length)
	n, err := g.dataFile.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read payload").
			WithGen(g.Gen).WithOffset(offset)
	}
	if uint64(n) != e.length {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeShortIO, "short read from data file").
			WithGen(g.Gen).WithOffset(offset).
			WithDetail("wanted", e.length).WithDetail("read", n)
	}

	if length == e.length {
		if crc := record.Checksum(buf); crc != e.crc {
			return nil, errors.NewCorruptionError(nil, errors.ErrorCodeCorruptCRC, "payload CRC mismatch on read").
				WithGen(g.Gen).WithOffset(offset).WithCRCs(e.crc, crc)
		}
	}

	return buf, nil
}

// Trim marks the entry at offset as no longer live. It is a no-op
// returning (false, nil) when the offset is unknown or already trimmed.
// The underlying data bytes are never rewritten; only the index record is.
func (g *Generation) Trim(offset, length uint64) (bool, error) {
	e, ok := g.index[offset]
	if !ok || e.state == record.StateTrimmed {
		return false, nil
	}

	rec := record.Record{Gen: g.Gen, Offset: offset, Length: e.length, CRC32: e.crc, State: record.StateTrimmed}
	raw := record.Marshal(rec)

	n, err := g.indexFile.WriteAt(raw[:], e.indexPos)
	if err != nil {
		return false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write trim record").
			WithGen(g.Gen).WithOffset(offset)
	}
	if n != record.Size {
		return false, errors.NewStorageError(nil, errors.ErrorCodeShortIO, "short write trimming index record").
			WithGen(g.Gen).WithOffset(offset)
	}

	e.state = record.StateTrimmed
	g.liveCount--
	return true, nil
}

// Keys enumerates every live entry's (gen, offset, length), stopping early
// if yield returns false. Iteration order is unspecified.
func (g *Generation) Keys(yield func(gen, offset, length uint64) bool) {
	for offset, e := range g.index {
		if e.state != record.StateLive {
			continue
		}
		if !yield(g.Gen, offset, e.length) {
			return
		}
	}
}

// Close closes both file handles. The files are removed from disk when
// remove is true, or when the generation has no live entries left.
func (g *Generation) Close(remove bool) error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}

	g.indexFile.Close()
	g.dataFile.Close()

	if remove || g.liveCount == 0 {
		filesys.DeleteFile(geninfo.IndexPath(g.dir, g.Gen))
		filesys.DeleteFile(geninfo.DataPath(g.dir, g.Gen))
		if g.log != nil {
			g.log.Infow("removed generation files", "gen", g.Gen)
		}
	}

	return nil
}

func classifyOpenErr(err error, gen uint64, path string) error {
	return errors.ClassifyFileOpenError(err, path, path).(*errors.StorageError).WithGen(gen)
}

func recoveryErr(err error, gen uint64, msg string) error {
	return errors.NewStorageError(err, errors.ErrorCodeRecoveryFailed, msg).WithGen(gen)
}
