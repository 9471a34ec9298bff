package player

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrFormatMismatch is returned when a stream does not match the format the
// process-wide audio context was opened with.
var ErrFormatMismatch = errors.New("stream format differs from audio context")

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

// Player previews a decoded resource through the audio device.
type Player struct {
	decoder     audioDecoder
	counter     *countingReader
	otoCtx      *oto.Context
	otoPlayer   *oto.Player
	frameSize   int64
	duration    time.Duration
	bytesPerSec int64
	paused      bool
	done        chan struct{}
	stopMon     chan struct{}
	mu          sync.Mutex
	closed      bool
}

type otoFormat struct {
	sampleRate int
	channels   int
}

var (
	globalOtoCtx *oto.Context
	globalFormat otoFormat
	otoOnce      sync.Once
	otoInitErr   error
)

// initOto opens the audio context once. oto allows a single context per
// process, so its format is fixed by the first stream played.
func initOto(f otoFormat) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   f.sampleRate,
			ChannelCount: f.channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			globalFormat = f
			<-ready
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if globalFormat != f {
		return nil, fmt.Errorf("%w: %d Hz/%d ch, context is %d Hz/%d ch", ErrFormatMismatch,
			f.sampleRate, f.channels, globalFormat.sampleRate, globalFormat.channels)
	}
	return globalOtoCtx, nil
}

// New decodes r (named by name for format detection) and starts playback.
// The caller keeps ownership of r and must keep it readable until Close.
func New(r io.ReadSeeker, name string) (*Player, error) {
	dec, err := newDecoder(r, name)
	if err != nil {
		return nil, err
	}

	ctx, err := initOto(otoFormat{sampleRate: dec.SampleRate(), channels: dec.ChannelCount()})
	if err != nil {
		return nil, err
	}

	p := &Player{
		decoder:     dec,
		counter:     &countingReader{reader: dec},
		duration:    pcmDuration(dec.Length(), dec.SampleRate(), dec.ChannelCount()),
		bytesPerSec: int64(dec.SampleRate()) * int64(dec.ChannelCount()) * bytesPerSample,
		frameSize:   int64(dec.ChannelCount()) * bytesPerSample,
		otoCtx:      ctx,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
	}

	p.otoPlayer = ctx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(0.8)
	p.otoPlayer.Play()

	go p.monitor()

	return p, nil
}

func (p *Player) monitor() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		finished := !p.paused && p.counter.Pos() >= p.decoder.Length()
		p.mu.Unlock()
		if finished {
			close(p.done)
			return
		}
	}
}

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.paused {
		p.otoPlayer.Play()
		p.paused = false
	} else {
		p.otoPlayer.Pause()
		p.paused = true
	}
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	if p.counter == nil || p.bytesPerSec == 0 {
		return 0
	}
	secs := float64(p.counter.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Seek moves playback by delta, clamped to the stream bounds.
func (p *Player) Seek(delta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	newPos := seekTarget(p.counter.Pos(), delta, p.bytesPerSec, p.frameSize, p.decoder.Length())
	if _, err := p.decoder.Seek(newPos, io.SeekStart); err != nil {
		return
	}
	p.counter.SetPos(newPos)

	// A new oto player drops the old one's buffered audio.
	p.otoPlayer.Pause()
	p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(0.8)
	if !p.paused {
		p.otoPlayer.Play()
	}
}

// seekTarget returns the frame-aligned byte offset delta away from pos.
func seekTarget(pos int64, delta time.Duration, bytesPerSec, frameSize, total int64) int64 {
	newPos := pos + int64(delta.Seconds()*float64(bytesPerSec))
	if newPos < 0 {
		newPos = 0
	}
	if newPos > total {
		newPos = total
	}
	if frameSize > 0 {
		newPos -= newPos % frameSize
	}
	return newPos
}

// Duration returns the total duration of the stream.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Close stops playback. It is safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.stopMon != nil {
		close(p.stopMon)
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
}
