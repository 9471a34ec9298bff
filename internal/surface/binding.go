// Package surface binds decoded media streams to numbered output surfaces.
package surface

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/olivier-w/surfacetest/internal/media"
	"github.com/olivier-w/surfacetest/internal/player"
)

var (
	ErrInvalidSurfaceID = errors.New("surfaceID is invalid")
	ErrInvalidInput     = errors.New("inJsFp is invalid")
	ErrInvalidOutput    = errors.New("outFd is invalid")
	ErrSurfaceNotFound  = errors.New("surface is null")
)

// AVFileDescriptor addresses the input stream: a raw fd plus the byte region
// inside it. A zero Length means "to the end of the file".
type AVFileDescriptor struct {
	FD     int
	Offset int64
	Length int64
}

// Binding renders input descriptors onto registered surfaces and remembers
// the last surface id that was set.
type Binding struct {
	reg    *Registry
	logger zerolog.Logger

	mu        sync.Mutex
	surfaceID string
}

// NewBinding returns a binding over reg.
func NewBinding(reg *Registry, logger zerolog.Logger) *Binding {
	return &Binding{reg: reg, logger: logger}
}

// SetSurfaceID decodes in, renders its PCM to the surface named by surfaceID
// and writes it as WAV to outFd. The caller keeps ownership of both fds. On
// success it returns "<surfaceID>,<inFd>,<outFd>".
func (b *Binding) SetSurfaceID(ctx context.Context, surfaceID string, in AVFileDescriptor, outFd int) (string, error) {
	b.logger.Info().
		Str("surface_id", surfaceID).
		Int("in_fd", in.FD).
		Int64("in_offset", in.Offset).
		Int64("in_size", in.Length).
		Int("out_fd", outFd).
		Msg("setSurfaceID")

	if surfaceID == "" || surfaceID[0] < '0' || surfaceID[0] > '9' {
		return "", b.fail(ErrInvalidSurfaceID)
	}
	if in.FD < 0 || in.Offset < 0 || in.Length < 0 {
		return "", b.fail(ErrInvalidInput)
	}
	if outFd < 0 {
		return "", b.fail(ErrInvalidOutput)
	}
	id, err := strconv.ParseUint(surfaceID, 10, 64)
	if err != nil {
		return "", b.fail(fmt.Errorf("%w: %v", ErrInvalidSurfaceID, err))
	}
	sink, ok := b.reg.Lookup(id)
	if !ok {
		return "", b.fail(ErrSurfaceNotFound)
	}

	if err := b.render(ctx, sink, in, outFd); err != nil {
		return "", b.fail(err)
	}

	b.mu.Lock()
	b.surfaceID = surfaceID
	b.mu.Unlock()
	return fmt.Sprintf("%s,%d,%d", surfaceID, in.FD, outFd), nil
}

// SetSurfaceIDCallback is the callback form of SetSurfaceID. cb runs on its
// own goroutine.
func (b *Binding) SetSurfaceIDCallback(ctx context.Context, surfaceID string, in AVFileDescriptor, outFd int, cb func(string, error)) {
	go func() {
		cb(b.SetSurfaceID(ctx, surfaceID, in, outFd))
	}()
}

// GetSurfaceID returns the last surface id set successfully, or "".
func (b *Binding) GetSurfaceID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger.Info().Str("surface_id", b.surfaceID).Msg("getSurfaceID")
	return b.surfaceID, nil
}

// GetSurfaceIDCallback is the callback form of GetSurfaceID.
func (b *Binding) GetSurfaceIDCallback(ctx context.Context, cb func(string, error)) {
	go func() {
		cb(b.GetSurfaceID(ctx))
	}()
}

func (b *Binding) fail(err error) error {
	b.logger.Error().Err(err).Msg("setSurfaceID failed")
	return err
}

func (b *Binding) render(ctx context.Context, sink Sink, in AVFileDescriptor, outFd int) error {
	inFile, err := dupFile(in.FD, "surface-in")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer inFile.Close()

	length := in.Length
	if length == 0 {
		info, err := inFile.Stat()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		length = info.Size() - in.Offset
	}
	src := io.NewSectionReader(inFile, in.Offset, length)

	head := make([]byte, 12)
	n, _ := src.ReadAt(head, 0)
	ext := media.SniffExt(head[:n])
	if ext == "" {
		return fmt.Errorf("%w: unrecognized stream", player.ErrUnsupportedFormat)
	}
	pcm, err := player.OpenPCM(src, "surface"+ext)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	outFile, err := dupFile(outFd, "surface-out")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	defer outFile.Close()

	rate, channels := pcm.SampleRate(), pcm.ChannelCount()
	if err := sink.Configure(rate, channels); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	enc := wav.NewEncoder(outFile, rate, 16, channels, 1)
	format := &audio.Format{NumChannels: channels, SampleRate: rate}

	buf := make([]byte, 4096*channels*2)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := pcm.Read(buf)
		if n > 0 {
			chunk := buf[:n-n%2]
			if _, err := sink.Write(chunk); err != nil {
				return fmt.Errorf("write surface: %w", err)
			}
			if err := enc.Write(&audio.IntBuffer{Format: format, Data: samples(chunk), SourceBitDepth: 16}); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("decode input: %w", readErr)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func samples(pcm []byte) []int {
	out := make([]int, len(pcm)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return out
}
