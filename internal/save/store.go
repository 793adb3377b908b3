// Package save persists world state: the seed, chunks, the player and mobs.
package save

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kivi-man/voxelworld/pkg/math"
)

// Store errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownStorage = errors.New("unknown storage kind")
)

// Storage kinds accepted by Open.
const (
	StorageFiles   = "files"
	StorageLevelDB = "leveldb"
)

// Keys of the world-level records.
const (
	SeedKey   = "seed.bin"
	PlayerKey = "player.bin"
	MobsKey   = "mobs.dat"

	chunkPrefix = "chunk_"
)

// ChunkKey returns the store key of the chunk at cp.
func ChunkKey(cp math.Vec3i) string {
	return fmt.Sprintf("%s%d_%d_%d.bin", chunkPrefix, cp.X, cp.Y, cp.Z)
}

// ParseChunkKey is the inverse of ChunkKey.
func ParseChunkKey(key string) (math.Vec3i, bool) {
	var cp math.Vec3i
	if !strings.HasPrefix(key, chunkPrefix) || !strings.HasSuffix(key, ".bin") {
		return cp, false
	}
	_, err := fmt.Sscanf(strings.TrimSuffix(key, ".bin"), chunkPrefix+"%d_%d_%d", &cp.X, &cp.Y, &cp.Z)
	return cp, err == nil
}

// Store is a flat key/value blob store.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	// Delete succeeds when key is absent.
	Delete(key string) error
	// Keys returns every key starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Open opens a store of the given kind rooted at dir, creating it if needed.
func Open(dir, kind string) (Store, error) {
	switch kind {
	case StorageFiles, "":
		return NewDirStore(dir)
	case StorageLevelDB:
		return NewLevelStore(dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, kind)
	}
}

// DirStore keeps one file per key in a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed and returns a store over it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes to a temporary file and renames it over key, so a crash never
// leaves a half-written record.
func (s *DirStore) Put(key string, data []byte) error {
	f, err := os.CreateTemp(s.dir, "."+key+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *DirStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DirStore) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, prefix) {
			continue
		}
		keys = append(keys, name)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *DirStore) Close() error {
	return nil
}

// LevelStore keeps every record in a LevelDB database.
type LevelStore struct {
	db *leveldb.DB
}

// NewLevelStore opens or creates the database in dir.
func NewLevelStore(dir string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(key string) ([]byte, error) {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *LevelStore) Put(key string, data []byte) error {
	return s.db.Put([]byte(key), data, nil)
}

func (s *LevelStore) Delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *LevelStore) Keys(prefix string) ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
