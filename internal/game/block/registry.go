package block

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed blocks.yaml
var defaultTable []byte

// Registry errors.
var (
	ErrReservedID     = errors.New("block id 0 is reserved for air")
	ErrDuplicateBlock = errors.New("duplicate block")
	ErrInvalidBlock   = errors.New("invalid block definition")
)

// Registry maps ids to block types. It is immutable after construction.
type Registry struct {
	types  [256]*Type
	byName map[string]*Type
	known  []*Type
}

type tableFile struct {
	Blocks []blockDef `yaml:"blocks"`
}

type blockDef struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	Model       string   `yaml:"model"`
	Transparent *bool    `yaml:"transparent"`
	Light       int      `yaml:"light"`
	Hardness    float32  `yaml:"hardness"`
	Sound       string   `yaml:"sound"`
	Glass       bool     `yaml:"glass"`
	Textures    []uint16 `yaml:"textures"`
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded block table.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Parse(defaultTable)
		if err != nil {
			panic(fmt.Sprintf("block: embedded table: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Parse builds a registry from a YAML block table.
func Parse(data []byte) (*Registry, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing block table: %w", err)
	}

	r := &Registry{byName: make(map[string]*Type)}
	air := &Type{ID: Air, Name: "air", Model: ModelNone, Transparent: true}
	r.types[Air] = air
	r.byName[air.Name] = air

	for _, def := range file.Blocks {
		t, err := def.build()
		if err != nil {
			return nil, err
		}
		if r.types[t.ID] != nil {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateBlock, t.ID)
		}
		if _, ok := r.byName[t.Name]; ok {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateBlock, t.Name)
		}
		r.types[t.ID] = t
		r.byName[t.Name] = t
		r.known = append(r.known, t)
	}

	// Ids missing from the table still resolve, as plain opaque cubes.
	for i := range r.types {
		if r.types[i] == nil {
			r.types[i] = &Type{ID: ID(i), Name: fmt.Sprintf("unknown_%d", i), Model: ModelCube}
		}
	}
	return r, nil
}

func (d blockDef) build() (*Type, error) {
	if d.ID == 0 {
		return nil, fmt.Errorf("%w: %q", ErrReservedID, d.Name)
	}
	if d.ID < 0 || d.ID > 255 {
		return nil, fmt.Errorf("%w: id %d out of range", ErrInvalidBlock, d.ID)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%w: id %d has no name", ErrInvalidBlock, d.ID)
	}
	if d.Light < 0 || d.Light > 15 {
		return nil, fmt.Errorf("%w: %s light %d", ErrInvalidBlock, d.Name, d.Light)
	}

	model := ModelCube
	if d.Model != "" {
		m, ok := ParseModel(d.Model)
		if !ok || m == ModelNone {
			return nil, fmt.Errorf("%w: %s has unknown model %q", ErrInvalidBlock, d.Name, d.Model)
		}
		model = m
	}

	sound := SoundForName(d.Name)
	if d.Sound != "" {
		s, ok := ParseSound(d.Sound)
		if !ok {
			return nil, fmt.Errorf("%w: %s has unknown sound %q", ErrInvalidBlock, d.Name, d.Sound)
		}
		sound = s
	}

	t := &Type{
		ID:          ID(d.ID),
		Name:        d.Name,
		Model:       model,
		Transparent: model != ModelCube,
		Light:       uint8(d.Light),
		Hardness:    d.Hardness,
		Sound:       sound,
		Glass:       d.Glass,
		Liquid:      model == ModelLiquid,
	}
	if d.Transparent != nil {
		t.Transparent = *d.Transparent
	}

	switch len(d.Textures) {
	case 0:
	case 1:
		for i := range t.Textures {
			t.Textures[i] = d.Textures[0]
		}
	case 6:
		copy(t.Textures[:], d.Textures)
	default:
		return nil, fmt.Errorf("%w: %s needs 1 or 6 textures, got %d", ErrInvalidBlock, d.Name, len(d.Textures))
	}
	return t, nil
}

// Get returns the type for id. It never returns nil.
func (r *Registry) Get(id ID) *Type {
	return r.types[id]
}

// Lookup finds a type by table name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Types returns the table-defined types in table order, air excluded.
func (r *Registry) Types() []*Type {
	return r.known
}

// IsOpaque reports whether id blocks light. Air is never opaque.
func (r *Registry) IsOpaque(id ID) bool {
	return !r.types[id].Transparent
}

// IsWater reports whether id is a water block.
func (r *Registry) IsWater(id ID) bool {
	return r.types[id].Liquid
}

// Emission returns the block light emitted by id.
func (r *Registry) Emission(id ID) uint8 {
	return r.types[id].Light
}
