package formats

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ChunkKey identifies the chunk a group of mobs was saved from.
type ChunkKey struct {
	X, Y, Z int
}

// MobRecord is the saved state of one mob.
type MobRecord struct {
	Position [3]float64
	Rotation [3]float64
	Behavior string
	Type     string
	Health   float64
}

// MobRegistry groups saved mobs by chunk.
type MobRegistry map[ChunkKey][]MobRecord

// Count returns the number of mobs across all chunks.
func (r MobRegistry) Count() int {
	n := 0
	for _, mobs := range r {
		n += len(mobs)
	}
	return n
}

// EncodeMobs serializes r as a gob stream inside a zstd frame.
func EncodeMobs(r MobRegistry) ([]byte, error) {
	if r == nil {
		r = MobRegistry{}
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(enc).Encode(r); err != nil {
		enc.Close()
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseMobs decodes data written by EncodeMobs.
func ParseMobs(data []byte) (MobRegistry, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := make(MobRegistry)
	if err := gob.NewDecoder(dec).Decode(&r); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return r, nil
}
