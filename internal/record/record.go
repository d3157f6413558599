// Package record implements the fixed-width index record wire format shared
// by every generation's index file: 32 bytes, little-endian, laid out as
// gen (u64) | offset (u64) | length (u64) | crc32 (u32) | state (i32).
package record

import (
	"encoding/binary"
	"hash/crc32"
)

// Size is the on-disk width of a single index record, in bytes.
const Size = 32

// State values recorded in the last 4 bytes of a record.
const (
	// StateLive marks an entry as appended and not yet trimmed.
	StateLive int32 = 1
	// StateTrimmed marks an entry as trimmed; its data bytes are no longer readable.
	StateTrimmed int32 = -1
)

// Record is the decoded form of one 32-byte index entry.
type Record struct {
	Gen    uint64
	Offset uint64
	Length uint64
	CRC32  uint32
	State  int32
}

// Marshal encodes r into a fresh 32-byte array in the on-disk layout.
func Marshal(r Record) [Size]byte {
	var buf [Size]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.Gen)
	binary.LittleEndian.PutUint64(buf[8:16], r.Offset)
	binary.LittleEndian.PutUint64(buf[16:24], r.Length)
	binary.LittleEndian.PutUint32(buf[24:28], r.CRC32)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(r.State))
	return buf
}

// Unmarshal decodes a 32-byte array into a Record.
func Unmarshal(buf [Size]byte) Record {
	return Record{
		Gen:    binary.LittleEndian.Uint64(buf[0:8]),
		Offset: binary.LittleEndian.Uint64(buf[8:16]),
		Length: binary.LittleEndian.Uint64(buf[16:24]),
		CRC32:  binary.LittleEndian.Uint32(buf[24:28]),
		State:  int32(binary.LittleEndian.Uint32(buf[28:32])),
	}
}

// Checksum computes the CRC-32/IEEE checksum of data, the same polynomial
// and table the original append-and-trim store used for its integrity check.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
