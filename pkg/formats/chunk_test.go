package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"testing"
)

// createTestChunk builds a chunk file by hand: runs as (count, id) pairs and
// raw water entries.
func createTestChunk(runs [][2]int, water []WaterEntry) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("RLE1")
	for _, r := range runs {
		buf.WriteByte(byte(r[0]))
		buf.WriteByte(byte(r[1]))
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(water)))
	for _, w := range water {
		buf.WriteByte(w.X)
		binary.Write(buf, binary.LittleEndian, uint16(w.Y))
		buf.WriteByte(w.Z)
		buf.WriteByte(w.Level)
	}
	return buf.Bytes()
}

// fullRuns returns runs of id covering the whole chunk.
func fullRuns(id int) [][2]int {
	var runs [][2]int
	for left := ChunkVolume; left > 0; left -= 255 {
		runs = append(runs, [2]int{min(left, 255), id})
	}
	return runs
}

func TestParseChunk_ValidFile(t *testing.T) {
	// 16 stone, then 16 full runs of air.
	runs := [][2]int{{16, 1}}
	for range 16 {
		runs = append(runs, [2]int{255, 0})
	}
	data := createTestChunk(runs, []WaterEntry{{X: 1, Y: 15, Z: 2, Level: 3}})

	c, err := ParseChunk(data)
	if err != nil {
		t.Fatalf("ParseChunk failed: %v", err)
	}
	for i := 0; i < 16; i++ {
		if c.Blocks[i] != 1 {
			t.Fatalf("block %d = %d, want 1", i, c.Blocks[i])
		}
	}
	if c.Blocks[16] != 0 {
		t.Errorf("block 16 = %d, want 0", c.Blocks[16])
	}
	if len(c.Water) != 1 || c.Water[0] != (WaterEntry{X: 1, Y: 15, Z: 2, Level: 3}) {
		t.Errorf("water = %+v", c.Water)
	}
	if counts := c.CountByID(); counts[1] != 16 || counts[0] != ChunkVolume-16 {
		t.Errorf("counts = %v", counts)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	for trial := range 50 {
		var c ChunkData
		// Mix long runs with noise so both run splitting and single runs occur.
		for i := range c.Blocks {
			if trial%2 == 0 && i%700 < 400 {
				c.Blocks[i] = 8
			} else {
				c.Blocks[i] = uint8(rng.IntN(4))
			}
		}
		for range rng.IntN(20) {
			c.Water = append(c.Water, WaterEntry{
				X: uint8(rng.IntN(16)), Y: uint8(rng.IntN(16)), Z: uint8(rng.IntN(16)),
				Level: uint8(rng.IntN(8)),
			})
		}

		got, err := ParseChunk(EncodeChunk(&c))
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if got.Blocks != c.Blocks {
			t.Fatalf("trial %d: blocks differ after round trip", trial)
		}
		if len(got.Water) != len(c.Water) {
			t.Fatalf("trial %d: %d water entries, want %d", trial, len(got.Water), len(c.Water))
		}
		for i := range c.Water {
			if got.Water[i] != c.Water[i] {
				t.Fatalf("trial %d: water %d = %+v, want %+v", trial, i, got.Water[i], c.Water[i])
			}
		}
	}
}

func TestEncodeChunk_RunLimit(t *testing.T) {
	var c ChunkData
	data := EncodeChunk(&c)
	// 4096 = 16*255 + 16: seventeen runs.
	if want := 4 + 17*2 + 4; len(data) != want {
		t.Errorf("uniform chunk encodes to %d bytes, want %d", len(data), want)
	}
	if data[4] != 255 || data[4+16*2] != 16 {
		t.Errorf("unexpected run lengths %d and %d", data[4], data[4+16*2])
	}
}

func TestParseChunk_Errors(t *testing.T) {
	valid := createTestChunk(fullRuns(1), nil)
	overflow := make([][2]int, 16)
	for i := range overflow {
		overflow[i] = [2]int{255, 1}
	}
	overflow = append(overflow, [2]int{20, 1})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedChunkData},
		{"bad magic", append([]byte("RLE2"), valid[4:]...), ErrInvalidChunkMagic},
		{"short runs", valid[:20], ErrTruncatedChunkData},
		{"missing water count", valid[:len(valid)-4], ErrTruncatedChunkData},
		{"run overflow", createTestChunk(overflow, nil), ErrChunkRunOverflow},
		{"trailing bytes", append(append([]byte{}, valid...), 0), ErrChunkTrailingData},
		{"water count too high", createTestChunk(fullRuns(1), []WaterEntry{{}})[:len(valid)], ErrTruncatedChunkData},
		{"water level", createTestChunk(fullRuns(1), []WaterEntry{{Level: 8}}), ErrInvalidWaterEntry},
		{"water coordinate", createTestChunk(fullRuns(1), []WaterEntry{{Y: 16}}), ErrInvalidWaterEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseChunk(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
