package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum_Deterministic(t *testing.T) {
	data := []byte("negentropy snapshot body")
	require.Equal(t, Checksum(data), Checksum(data))
}

func TestChecksum_SensitiveToChanges(t *testing.T) {
	a := []byte{0x01, 0x02, 0x03}
	b := []byte{0x01, 0x02, 0x04}
	require.NotEqual(t, Checksum(a), Checksum(b))
}

func TestChecksum_Empty(t *testing.T) {
	// xxHash64 of empty input is a fixed, documented value.
	require.Equal(t, uint64(0xef46db3751d8e999), Checksum(nil))
}
