package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// PlayerSize is the length of a player file: five float64 values.
const PlayerSize = 40

// ErrInvalidPlayerSize is returned for player data that is not exactly PlayerSize bytes.
var ErrInvalidPlayerSize = errors.New("invalid player size")

// Player is the saved player state.
type Player struct {
	X, Y, Z    float64
	Yaw, Pitch float64
}

// EncodePlayer serializes p.
func EncodePlayer(p Player) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PlayerSize))
	// Writing a fixed-size struct to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, &p)
	return buf.Bytes()
}

// ParsePlayer decodes a player file.
func ParsePlayer(data []byte) (Player, error) {
	var p Player
	if len(data) != PlayerSize {
		return p, fmt.Errorf("%w: %d bytes", ErrInvalidPlayerSize, len(data))
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &p); err != nil {
		return p, fmt.Errorf("reading player: %w", err)
	}
	return p, nil
}
