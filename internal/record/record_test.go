package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	r := Record{Gen: 7, Offset: 128, Length: 64, CRC32: 0xDEADBEEF, State: StateLive}
	got := Unmarshal(Marshal(r))
	require.Equal(t, r, got)
}

func TestMarshalIsLittleEndianAndFixedWidth(t *testing.T) {
	r := Record{Gen: 1, Offset: 2, Length: 3, CRC32: 4, State: StateTrimmed}
	buf := Marshal(r)
	require.Len(t, buf, Size)
	require.Equal(t, byte(1), buf[0], "gen encoded low-byte-first")
	require.Equal(t, byte(2), buf[8], "offset encoded low-byte-first")
	require.Equal(t, uint32(0xFFFFFFFF), uint32(StateTrimmed), "sanity: -1 as two's complement u32")
}

func TestChecksumMatchesIEEETable(t *testing.T) {
	// "123456789" is the standard CRC-32/IEEE check value vector.
	require.Equal(t, uint32(0xCBF43926), Checksum([]byte("123456789")))
}

func TestChecksumDiffersOnMutation(t *testing.T) {
	a := Checksum([]byte("payload-a"))
	b := Checksum([]byte("payload-b"))
	require.NotEqual(t, a, b)
}
