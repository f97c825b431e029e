package cue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

const (
	playbackRate = 48000

	// drainTimeout bounds how long Close waits for queued cues to play out.
	drainTimeout = 2 * time.Second
	drainPoll    = 10 * time.Millisecond
)

// Miniaudio plays cues on the default output device.
type Miniaudio struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	mu      sync.Mutex
	pending []byte

	logger logger.Logger
}

// Option applies a configuration option to Miniaudio.
type Option func(*Miniaudio)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Miniaudio) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMiniaudio opens and starts the default playback device.
func NewMiniaudio(opts ...Option) (*Miniaudio, error) {
	m := &Miniaudio{logger: logger.Get().Named("cue")}
	for _, opt := range opts {
		opt(m)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	m.audioContext = audioCtx

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = playbackRate
	config.Playback.Format = format
	config.Playback.Channels = 1
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = playbackRate / 50 // 20 ms
	config.Periods = 4

	m.device, err = malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{Data: m.render(bytesPerFrame)})
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	if err := m.device.Start(); err != nil {
		m.Close()
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	return m, nil
}

// Play queues a tone and returns immediately.
func (m *Miniaudio) Play(frequency float64, d time.Duration) {
	pcm := Tone(frequency, d, playbackRate)
	if len(pcm) == 0 {
		return
	}
	m.mu.Lock()
	m.pending = append(m.pending, pcm...)
	m.mu.Unlock()
	m.logger.Debug(context.Background(), "cue queued",
		logger.Float64("frequency", frequency),
		logger.Duration("duration", d),
	)
}

// Close waits for queued cues to finish playing, then stops the device and
// releases the audio context.
func (m *Miniaudio) Close() {
	if m.device != nil {
		if !m.drain(drainTimeout) {
			m.logger.Warn(context.Background(), "closing audio device with cues still queued",
				logger.Int("pending_bytes", m.pendingBytes()),
			)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.audioContext != nil {
		_ = m.audioContext.Uninit()
		m.audioContext.Free()
		m.audioContext = nil
	}
}

// drain blocks until the render loop has consumed every queued byte or the
// timeout elapses. It reports whether the queue emptied.
func (m *Miniaudio) drain(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(drainPoll)
	defer tick.Stop()

	for m.pendingBytes() > 0 {
		select {
		case <-deadline.C:
			return m.pendingBytes() == 0
		case <-tick.C:
		}
	}
	return true
}

func (m *Miniaudio) pendingBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// render feeds queued PCM to the device and pads with silence.
func (m *Miniaudio) render(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		m.mu.Lock()
		n := copy(pOutput[:need], m.pending)
		m.pending = m.pending[n:]
		m.mu.Unlock()
		clear(pOutput[n:need])
	}
}
