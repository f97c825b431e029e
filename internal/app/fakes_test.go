package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/dataset/edf"
	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var errDevice = errors.New("device unplugged")

// fakeClock advances only when slept on.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

// fakeSource produces rate samples per second of fake clock time since the
// session started. Sample i of channel c has the ramp value i+c*1000
// unless the channel is listed in constant.
type fakeSource struct {
	clock    *fakeClock
	rate     float64
	channels int
	constant map[int]bool

	stall     bool
	startErr  error
	stopErr   error
	pullErr   error
	cancelAt  int // cancel after this many BufferedCount calls, 0 = never
	cancel    context.CancelFunc
	countCall int

	started    time.Time
	active     bool
	capacity   int
	starts     int
	stops      int
	capacities []int
}

func newFakeSource(clock *fakeClock, rate float64) *fakeSource {
	return &fakeSource{clock: clock, rate: rate, channels: 8, constant: map[int]bool{}}
}

func (s *fakeSource) StartSession(_ context.Context, capacity int) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.active = true
	s.started = s.clock.Now()
	s.capacity = capacity
	s.starts++
	s.capacities = append(s.capacities, capacity)
	return nil
}

func (s *fakeSource) StopSession(context.Context) error {
	s.active = false
	s.stops++
	return s.stopErr
}

func (s *fakeSource) produced() int {
	if s.stall {
		return 0
	}
	n := int(s.clock.Now().Sub(s.started).Seconds() * s.rate)
	if n > s.capacity {
		return s.capacity
	}
	return n
}

func (s *fakeSource) BufferedCount(context.Context) (int, error) {
	s.countCall++
	if s.cancelAt > 0 && s.countCall >= s.cancelAt && s.cancel != nil {
		s.cancel()
	}
	if !s.active {
		return 0, errors.New("no session")
	}
	return s.produced(), nil
}

func (s *fakeSource) PullLatest(_ context.Context, n int, channels []int) ([][]float64, error) {
	if s.pullErr != nil {
		return nil, s.pullErr
	}
	total := s.produced()
	out := make([][]float64, len(channels))
	for r, ch := range channels {
		out[r] = make([]float64, n)
		for j := range out[r] {
			if s.constant[ch] {
				out[r][j] = 7
				continue
			}
			out[r][j] = float64(total - n + j + ch*1000)
		}
	}
	return out, nil
}

// fakeCue records played tones.
type fakeCue struct {
	frequencies []float64
	durations   []time.Duration
}

func (c *fakeCue) Play(frequency float64, d time.Duration) {
	c.frequencies = append(c.frequencies, frequency)
	c.durations = append(c.durations, d)
}

// scriptedRunner returns canned chunks per phase call.
type scriptedRunner struct {
	results [][]model.Chunk
	errs    []error
	calls   int
	guard   time.Duration
}

func (r *scriptedRunner) Deadline(phase model.Phase) time.Duration {
	return phase.Duration + r.guard
}

func (r *scriptedRunner) Run(context.Context, model.Phase, float64) ([]model.Chunk, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	return r.results[i], nil
}

// chunks builds n chunks of width samples over channels rows; rows listed in
// flat are constant.
func chunks(n, width, channels int, flat ...int) []model.Chunk {
	isFlat := map[int]bool{}
	for _, c := range flat {
		isFlat[c] = true
	}
	out := make([]model.Chunk, n)
	for k := range out {
		out[k] = make(model.Chunk, channels)
		for c := range out[k] {
			out[k][c] = make([]float64, width)
			for j := range out[k][c] {
				if isFlat[c] {
					out[k][c][j] = 3
					continue
				}
				out[k][c][j] = float64(k*width + j)
			}
		}
	}
	return out
}

// recorder captures progress callbacks.
type recorder struct {
	started  []int
	endsAt   []time.Time
	finished []int
	failed   []error
}

func (r *recorder) PhaseStarted(i int, _ model.Phase, endsAt time.Time) {
	r.started = append(r.started, i)
	r.endsAt = append(r.endsAt, endsAt)
}

func (r *recorder) PhaseFinished(i int, _ model.Phase, err error) {
	r.finished = append(r.finished, i)
	if err != nil {
		r.failed = append(r.failed, err)
	}
}

// flakyWriter fails the first failures calls and then delegates.
type flakyWriter struct {
	failures int
	calls    int
	next     *edf.Writer
}

func (w *flakyWriter) Write(ctx context.Context, path string, ds edf.Dataset) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("disk full")
	}
	return w.next.Write(ctx, path, ds)
}

func channelSet(n int) model.ChannelSet {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	cs, err := model.NewChannelSet(idx, nil, 0)
	if err != nil {
		panic(err)
	}
	return cs
}
