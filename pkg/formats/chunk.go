// Package formats provides encoders and parsers for the world save files.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Chunk format errors.
var (
	ErrInvalidChunkMagic  = errors.New("invalid chunk magic: expected 'RLE1'")
	ErrTruncatedChunkData = errors.New("truncated chunk data")
	ErrChunkRunOverflow   = errors.New("chunk runs exceed block count")
	ErrChunkTrailingData  = errors.New("trailing bytes after chunk data")
	ErrInvalidWaterEntry  = errors.New("invalid water entry")
)

// Chunk layout constants.
const (
	ChunkMagic  = "RLE1"
	ChunkEdge   = 16
	ChunkVolume = ChunkEdge * ChunkEdge * ChunkEdge

	// MaxWaterLevel is the highest level a water entry may carry.
	MaxWaterLevel = 7

	maxRun         = 255
	waterEntrySize = 5
)

// WaterEntry is the level of one water voxel, at a chunk-local position.
type WaterEntry struct {
	X, Y, Z uint8
	Level   uint8
}

// ChunkData is the decoded content of a chunk file.
type ChunkData struct {
	// Blocks is indexed x<<8 | y<<4 | z.
	Blocks [ChunkVolume]uint8
	Water  []WaterEntry
}

// CountByID returns how many voxels hold each block id.
func (c *ChunkData) CountByID() map[uint8]int {
	counts := make(map[uint8]int)
	for _, id := range c.Blocks {
		counts[id]++
	}
	return counts
}

// EncodeChunk serializes c. Blocks are run-length encoded in index order,
// followed by the water entries.
func EncodeChunk(c *ChunkData) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(ChunkMagic) + 64 + 4 + len(c.Water)*waterEntrySize)
	buf.WriteString(ChunkMagic)

	for i := 0; i < ChunkVolume; {
		id := c.Blocks[i]
		run := 1
		for i+run < ChunkVolume && run < maxRun && c.Blocks[i+run] == id {
			run++
		}
		buf.WriteByte(byte(run))
		buf.WriteByte(id)
		i += run
	}

	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(c.Water)))
	buf.Write(scratch[:])
	for _, w := range c.Water {
		buf.WriteByte(w.X)
		binary.LittleEndian.PutUint16(scratch[:2], uint16(w.Y))
		buf.Write(scratch[:2])
		buf.WriteByte(w.Z)
		buf.WriteByte(w.Level)
	}
	return buf.Bytes()
}

// ParseChunk decodes a chunk file. The runs must cover exactly ChunkVolume
// blocks and the water section must end the data.
func ParseChunk(data []byte) (*ChunkData, error) {
	if len(data) < len(ChunkMagic) {
		return nil, ErrTruncatedChunkData
	}
	if string(data[:len(ChunkMagic)]) != ChunkMagic {
		return nil, ErrInvalidChunkMagic
	}
	offset := len(ChunkMagic)

	c := &ChunkData{}
	filled := 0
	for filled < ChunkVolume {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: %d of %d blocks", ErrTruncatedChunkData, filled, ChunkVolume)
		}
		run, id := int(data[offset]), data[offset+1]
		offset += 2
		if filled+run > ChunkVolume {
			return nil, fmt.Errorf("%w: run of %d at block %d", ErrChunkRunOverflow, run, filled)
		}
		for i := filled; i < filled+run; i++ {
			c.Blocks[i] = id
		}
		filled += run
	}

	if offset+4 > len(data) {
		return nil, fmt.Errorf("%w: missing water count", ErrTruncatedChunkData)
	}
	count := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	if want := offset + count*waterEntrySize; count > ChunkVolume || want > len(data) {
		return nil, fmt.Errorf("%w: %d water entries", ErrTruncatedChunkData, count)
	} else if want < len(data) {
		return nil, fmt.Errorf("%w: %d bytes", ErrChunkTrailingData, len(data)-want)
	}

	if count > 0 {
		c.Water = make([]WaterEntry, 0, count)
	}
	for range count {
		y := binary.LittleEndian.Uint16(data[offset+1:])
		w := WaterEntry{X: data[offset], Y: uint8(y), Z: data[offset+3], Level: data[offset+4]}
		offset += waterEntrySize
		if w.X >= ChunkEdge || y >= ChunkEdge || w.Z >= ChunkEdge || w.Level > MaxWaterLevel {
			return nil, fmt.Errorf("%w: (%d, %d, %d) level %d", ErrInvalidWaterEntry, w.X, y, w.Z, w.Level)
		}
		c.Water = append(c.Water, w)
	}
	return c, nil
}

// ParseChunkFile parses a chunk file from disk.
func ParseChunkFile(path string) (*ChunkData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk file: %w", err)
	}
	return ParseChunk(data)
}
