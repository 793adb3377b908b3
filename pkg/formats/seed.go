package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SeedSize is the length of a seed file.
const SeedSize = 8

// ErrInvalidSeedSize is returned for seed data that is not exactly SeedSize bytes.
var ErrInvalidSeedSize = errors.New("invalid seed size")

// EncodeSeed serializes a world seed as a little-endian int64.
func EncodeSeed(seed int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(seed))
}

// ParseSeed decodes a seed file.
func ParseSeed(data []byte) (int64, error) {
	if len(data) != SeedSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidSeedSize, len(data))
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}
