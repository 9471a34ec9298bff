package surface

import (
	"encoding/binary"
	"sync"
)

// Sink receives the decoded 16-bit little-endian PCM rendered to a surface.
type Sink interface {
	Configure(sampleRate, channels int) error
	Write(p []byte) (int, error)
}

// Registry maps numeric surface ids to sinks.
type Registry struct {
	mu    sync.Mutex
	next  uint64
	sinks map[uint64]Sink
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[uint64]Sink)}
}

// Register adds s and returns its surface id.
func (r *Registry) Register(s Sink) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.sinks[r.next] = s
	return r.next
}

// Unregister removes the sink for id.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	delete(r.sinks, id)
	r.mu.Unlock()
}

// Lookup returns the sink for id.
func (r *Registry) Lookup(id uint64) (Sink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[id]
	return s, ok
}

// MeterSink counts rendered frames and tracks the peak sample level.
type MeterSink struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	bytes      int64
	peak       int
}

func (m *MeterSink) Configure(sampleRate, channels int) error {
	m.mu.Lock()
	m.sampleRate, m.channels = sampleRate, channels
	m.bytes, m.peak = 0, 0
	m.mu.Unlock()
	return nil
}

func (m *MeterSink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i+1 < len(p); i += 2 {
		s := int(int16(binary.LittleEndian.Uint16(p[i:])))
		if s < 0 {
			s = -s
		}
		if s > m.peak {
			m.peak = s
		}
	}
	m.bytes += int64(len(p))
	return len(p), nil
}

// Frames is the number of complete sample frames written.
func (m *MeterSink) Frames() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channels == 0 {
		return 0
	}
	return m.bytes / int64(m.channels*2)
}

// Peak is the largest absolute sample value seen, 0..32768.
func (m *MeterSink) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
