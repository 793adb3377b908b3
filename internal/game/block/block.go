// Package block defines the immutable block type table.
package block

import (
	"fmt"
	"strings"
)

// ID is a block type identifier as stored in chunk arrays.
type ID uint8

// Well-known block ids.
const (
	Air         ID = 0
	Stone       ID = 1
	Grass       ID = 2
	Dirt        ID = 3
	Cobblestone ID = 4
	Planks      ID = 5
	Bedrock     ID = 7
	Water       ID = 8
	StillWater  ID = 9
	Sand        ID = 12
	GoldOre     ID = 14
	IronOre     ID = 15
	CoalOre     ID = 16
	OakLog      ID = 17
	OakLeaves   ID = 18
	Glass       ID = 20
	TallGrass   ID = 31
	Flower      ID = 37
	Slab        ID = 44
	Torch       ID = 50
	Stairs      ID = 53
	DiamondOre  ID = 56
	Sign        ID = 63
	Door        ID = 64
	Ladder      ID = 65
	RedstoneOre ID = 73
	Glowstone   ID = 89
)

// Model is the geometry template a block is drawn with.
type Model uint8

// Model kinds.
const (
	ModelNone Model = iota // air
	ModelCube
	ModelLiquid
	ModelPlant
	ModelTorch
	ModelSlab
	ModelStairs
	ModelDoor
	ModelSign
	ModelLadder
)

var modelNames = map[Model]string{
	ModelNone:   "none",
	ModelCube:   "cube",
	ModelLiquid: "liquid",
	ModelPlant:  "plant",
	ModelTorch:  "torch",
	ModelSlab:   "slab",
	ModelStairs: "stairs",
	ModelDoor:   "door",
	ModelSign:   "sign",
	ModelLadder: "ladder",
}

// String returns the model name used in block tables.
func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", m)
}

// IsCube reports whether the model is a full unit cube whose faces are culled
// against neighbors.
func (m Model) IsCube() bool {
	return m == ModelCube || m == ModelLiquid
}

// ParseModel converts a table name to a Model.
func ParseModel(name string) (Model, bool) {
	for m, n := range modelNames {
		if n == name {
			return m, true
		}
	}
	return ModelNone, false
}

// Sound is the footstep/dig sound category of a block.
type Sound uint8

// Sound categories.
const (
	SoundStone Sound = iota
	SoundGravel
	SoundSand
	SoundWood
	SoundGrass
	SoundSnow
	SoundCloth
	SoundCoral
	SoundGlass
)

var soundNames = [...]string{"stone", "gravel", "sand", "wood", "grass", "snow", "cloth", "coral", "glass"}

// String returns the sound category name.
func (s Sound) String() string {
	if int(s) < len(soundNames) {
		return soundNames[s]
	}
	return fmt.Sprintf("Unknown(%d)", s)
}

// ParseSound converts a table name to a Sound.
func ParseSound(name string) (Sound, bool) {
	for i, n := range soundNames {
		if n == name {
			return Sound(i), true
		}
	}
	return SoundStone, false
}

// SoundForName guesses a sound category from a block name.
func SoundForName(name string) Sound {
	switch {
	case strings.Contains(name, "gravel"):
		return SoundGravel
	case strings.Contains(name, "sand"):
		return SoundSand
	case strings.Contains(name, "wood"), strings.Contains(name, "log"), strings.Contains(name, "plank"):
		return SoundWood
	case strings.Contains(name, "grass"), strings.Contains(name, "leaves"),
		strings.Contains(name, "plant"), strings.Contains(name, "sapling"):
		return SoundGrass
	case strings.Contains(name, "snow"):
		return SoundSnow
	case strings.Contains(name, "wool"), strings.Contains(name, "carpet"):
		return SoundCloth
	case strings.Contains(name, "coral"):
		return SoundCoral
	default:
		return SoundStone
	}
}

// Type describes one block id. Types are shared and must not be modified.
type Type struct {
	ID          ID
	Name        string
	Model       Model
	Transparent bool
	Light       uint8 // emitted block light, 0-15
	Hardness    float32
	Sound       Sound
	Glass       bool // faces between two blocks of this type are hidden
	Liquid      bool
	Textures    [6]uint16 // texture layer per face, in math.Face order
}

// Solid reports whether entities collide with the block.
func (t *Type) Solid() bool {
	return t.ID != Air && !t.Liquid && t.Model != ModelPlant && t.Model != ModelTorch
}
