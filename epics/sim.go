package epics

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/accelsw/felobs/observe"
)

// Simulator synthesizes plausible machine readings so the sampler, the
// stability suite and the TUI can run without a gateway. Channels it does
// not recognize by name come back as gas-detector waveforms.
type Simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	rate    float64
	buffer  int
	dropout float64
}

var _ observe.Interface = (*Simulator)(nil)

// SimOption configures a Simulator.
type SimOption func(*Simulator)

// WithSeed makes the simulator deterministic.
func WithSeed(seed int64) SimOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRate sets the simulated repetition rate in Hz.
func WithRate(hz float64) SimOption {
	return func(s *Simulator) {
		s.rate = hz
	}
}

// WithBufferSize sets the length of synthesized history buffers.
func WithBufferSize(n int) SimOption {
	return func(s *Simulator) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithDropout sets the probability that any one shot reads as NaN.
func WithDropout(p float64) SimOption {
	return func(s *Simulator) {
		s.dropout = p
	}
}

// NewSimulator returns a Simulator with LCLS-like defaults: 120 Hz, a 2800
// sample circular buffer, and a two percent invalid-shot rate.
func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		rate:    120,
		buffer:  2800,
		dropout: 0.02,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetValue synthesizes one channel reading.
func (s *Simulator) GetValue(ctx context.Context, name string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synthesize(name), nil
}

// GetValues synthesizes a batched reading, one entry per requested channel.
func (s *Simulator) GetValues(ctx context.Context, names []string) (map[string][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		out[name] = s.synthesize(name)
	}
	return out, nil
}

func (s *Simulator) synthesize(name string) []float64 {
	switch {
	case name == observe.BeamRateChannel:
		return []float64{s.rate}
	case name == observe.SXRGasScalarChannel:
		return []float64{s.gasShot()}
	case strings.Contains(name, "LOSS"):
		return s.waveform(0.12, 0.03)
	default:
		return s.waveform(1.8, 0.2)
	}
}

func (s *Simulator) gasShot() float64 {
	return 1.8 + s.rng.NormFloat64()*0.2
}

// waveform fills a history buffer around level with Gaussian jitter,
// clipping at zero and punching NaN holes at the dropout rate.
func (s *Simulator) waveform(level, jitter float64) []float64 {
	vals := make([]float64, s.buffer)
	for i := range vals {
		if s.rng.Float64() < s.dropout {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = max(0, level+s.rng.NormFloat64()*jitter)
	}
	return vals
}
