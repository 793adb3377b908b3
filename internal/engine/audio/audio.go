// Package audio plays positional sound effects for block and mob events.
package audio

import (
	"errors"
	"fmt"
	"io"
	gomath "math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/logger"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// Distance falloff: full volume up to minDistance, silent from maxDistance.
const (
	minDistance = 2.0
	maxDistance = 32.0
)

// maxVoices bounds the sounds mixed at once. Further sounds are dropped.
const maxVoices = 32

// Manager holds the loaded sound banks and mixes effects for playback.
type Manager struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	// sounds maps a group name ("stone", "pig_say") to its variations.
	sounds map[string][]*beep.Buffer
	mixer  *beep.Mixer

	listener     mgl64.Vec3
	masterVolume float64

	rng *rand.Rand
	log *zap.Logger
}

// New creates a manager with no sounds and no output device.
func New() *Manager {
	return &Manager{
		sampleRate:   DefaultSampleRate,
		sounds:       make(map[string][]*beep.Buffer),
		mixer:        &beep.Mixer{},
		masterVolume: 1.0,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		log:          logger.Named("audio"),
	}
}

// Init opens the output device and starts the mixer on it.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)
	m.initialized = true
	return nil
}

// Close stops playback and releases the output device.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// MasterVolume returns the master volume.
func (m *Manager) MasterVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.masterVolume
}

// SetListener moves the point sounds are heard from.
func (m *Manager) SetListener(pos mgl64.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = pos
}

// Load decodes WAV data and adds it as a variation of group.
func (m *Manager) Load(group string, r io.Reader) error {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		s = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}
	format.SampleRate = m.sampleRate
	buf := beep.NewBuffer(format)
	buf.Append(s)

	m.mu.Lock()
	m.sounds[group] = append(m.sounds[group], buf)
	m.mu.Unlock()
	return nil
}

// LoadDir loads every .wav file in dir, and in its subdirectories under a
// "<subdir>_" prefix. Trailing digits in a file name select a variation, so
// stone1.wav and stone2.wav both belong to "stone". A missing directory
// loads nothing.
func (m *Manager) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		m.log.Warn("sound directory not found", zap.String("dir", dir))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			n, err := m.loadFiles(filepath.Join(dir, e.Name()), e.Name()+"_")
			loaded += n
			if err != nil {
				return loaded, err
			}
		}
	}
	n, err := m.loadFiles(dir, "")
	loaded += n
	m.log.Info("sounds loaded", zap.String("dir", dir), zap.Int("files", loaded), zap.Int("groups", len(m.Groups())))
	return loaded, err
}

func (m *Manager) loadFiles(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return loaded, err
		}
		err = m.Load(prefix+groupName(name), f)
		f.Close()
		if err != nil {
			m.log.Warn("failed to load sound", zap.String("file", name), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// groupName strips the extension and variation digits from a file name.
func groupName(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return strings.TrimRight(base, "0123456789")
}

// Groups returns the loaded group names, sorted.
func (m *Manager) Groups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sounds))
	for name := range m.sounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Play mixes a random variation of group at pos. It reports false when the
// group is unknown, pos is out of earshot or too many sounds are playing.
func (m *Manager) Play(group string, pos mgl64.Vec3) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	variations := m.sounds[group]
	if len(variations) == 0 {
		return false
	}
	gain := m.masterVolume * attenuation(pos.Sub(m.listener).Len())
	if gain <= 0 {
		return false
	}

	buf := variations[m.rng.IntN(len(variations))]
	voice := &effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   gainToVolume(gain),
	}

	if m.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	if m.mixer.Len() >= maxVoices {
		m.log.Debug("dropping sound, too many voices", zap.String("group", group))
		return false
	}
	m.mixer.Add(voice)
	return true
}

// Stream pulls mixed samples without an output device.
func (m *Manager) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mixer.Stream(samples)
}

// Voices returns the number of sounds still playing.
func (m *Manager) Voices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return m.mixer.Len()
}

// attenuation maps a listener distance to a linear gain.
func attenuation(dist float64) float64 {
	switch {
	case dist <= minDistance:
		return 1
	case dist >= maxDistance:
		return 0
	}
	return 1 - (dist-minDistance)/(maxDistance-minDistance)
}

// gainToVolume converts a linear gain to the base-2 exponent effects.Volume expects.
func gainToVolume(gain float64) float64 {
	if gain <= 0 {
		return -100
	}
	return gomath.Log2(gain)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
