// Package observe computes windowed beam statistics ("observables") from a
// particle-accelerator control system for an external optimization loop. Each
// acquisition waits long enough for the machine-side circular buffers to fill,
// reads the trailing window of the intensity and loss channels, masks invalid
// shots, and reduces the remainder to a fixed statistics record.
package observe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fixed LCLS channel names. They are part of the control-system contract and
// must match the machine database exactly.
const (
	// BeamRateChannel reports the machine repetition rate in Hz.
	BeamRateChannel = "EVNT:SYS0:1:LCLSBEAMRATE"
	// HXRGasChannelFormat is the hard-x-ray gas-detector history buffer; the
	// verb slot takes the FEL channel number, for example "241".
	HXRGasChannelFormat = "GDET:FEE1:%s:ENRCHSTCUHBR"
	// SXRGasChannel is the soft-x-ray gas-monitor history buffer.
	SXRGasChannel = "EM1K0:GMD:HPS:milliJoulesPerPulseHSTCUSBR"
	// SXRGasScalarChannel is the soft-x-ray single-shot reading used as a
	// degraded substitute when the history buffer cannot be reduced.
	SXRGasScalarChannel = "EM1K0:GMD:HPS:milliJoulesPerPulse"
)

// defaultNap is the wait used when the beam rate cannot be read.
const defaultNap = time.Second

// Interface is the control-system capability injected into the Sampler.
// A scalar channel yields a single-element slice; a waveform channel yields
// the buffered history, oldest first.
type Interface interface {
	// GetValue reads one channel.
	GetValue(ctx context.Context, name string) ([]float64, error)
	// GetValues reads several channels in one batched call.
	GetValues(ctx context.Context, names []string) (map[string][]float64, error)
}

// PulseStats summarizes one acquisition window. It is immutable once
// returned; either every field is populated or the acquisition failed and no
// record exists.
type PulseStats struct {
	// GasP80 is the 80th percentile of the valid pulse energies in mJ.
	GasP80 float64 `json:"gas_p80"`
	// GasMean is the mean of the valid pulse energies.
	GasMean float64 `json:"gas_mean"`
	// GasMedian is the median of the valid pulse energies.
	GasMedian float64 `json:"gas_median"`
	// GasStd is the population standard deviation of the valid pulse energies.
	GasStd float64 `json:"gas_std"`
	// LossP80 is the 80th percentile of the valid loss readings.
	LossP80 float64 `json:"loss_p80"`
}

// Sampler acquires observables through a control-system Interface. A Sampler
// is stateless between calls; concurrent use is safe exactly when the
// underlying Interface is.
type Sampler struct {
	iface Interface
	log   *zap.Logger
	nap   func(time.Duration)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger routes the sampler's informational and warning output to log.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sampler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNap replaces the blocking wait between the rate estimate and the data
// fetch. Intended for tests and simulators; the default is time.Sleep.
func WithNap(nap func(time.Duration)) Option {
	return func(s *Sampler) {
		if nap != nil {
			s.nap = nap
		}
	}
}

// NewSampler returns a Sampler reading through iface. Logging defaults to a
// no-op logger.
func NewSampler(iface Interface, opts ...Option) *Sampler {
	s := &Sampler{
		iface: iface,
		log:   zap.NewNop(),
		nap:   time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntensityAndLoss acquires the combined pulse-intensity and beam-loss
// observable. hxr selects the hard-x-ray gas-detector naming convention
// (disambiguated by felChannel); otherwise the soft-x-ray gas monitor is
// read. points is the number of most-recent shots to reduce.
//
// When the windowed statistics cannot be computed, the soft-x-ray path falls
// back to the single-shot gas reading replicated into the percentile, mean
// and median fields with zero spread; the hard-x-ray detectors expose no
// single-shot reading, so that path fails with ErrEnvObservable.
func (s *Sampler) IntensityAndLoss(ctx context.Context, hxr bool, points int, lossChannel, felChannel string) (PulseStats, error) {
	s.log.Info("acquiring intensity and loss",
		zap.Int("points", points),
		zap.Bool("hxr", hxr),
		zap.String("loss_channel", lossChannel))

	s.nap(s.napTime(ctx, points))

	gasChannel := SXRGasChannel
	if hxr {
		gasChannel = fmt.Sprintf(HXRGasChannelFormat, felChannel)
	}

	st, err := s.windowStats(ctx, gasChannel, lossChannel, points)
	if err == nil {
		return st, nil
	}
	if hxr {
		return PulseStats{}, fmt.Errorf("%w: %w", ErrEnvObservable, err)
	}

	s.log.Warn("windowed statistics failed, falling back to the scalar gas reading", zap.Error(err))
	vals, verr := s.iface.GetValue(ctx, SXRGasScalarChannel)
	if verr != nil {
		return PulseStats{}, fmt.Errorf("scalar gas fallback: %w", verr)
	}
	gas, verr := scalarOf(vals)
	if verr != nil {
		return PulseStats{}, fmt.Errorf("scalar gas fallback: %w", verr)
	}
	return PulseStats{GasP80: gas, GasMean: gas, GasMedian: gas}, nil
}

// Loss acquires the 80th percentile of the beam-loss observable alone. The
// control system exposes no single-shot loss reading, so any failure in the
// fetch, filter or reduction surfaces as ErrEnvObservable.
func (s *Sampler) Loss(ctx context.Context, points int, lossChannel string) (float64, error) {
	s.log.Info("acquiring loss",
		zap.Int("points", points),
		zap.String("loss_channel", lossChannel))

	s.nap(s.napTime(ctx, points))

	raw, err := s.iface.GetValue(ctx, lossChannel)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEnvObservable, err)
	}
	valid := validOnly(lastN(raw, points))
	if len(valid) == 0 {
		return 0, fmt.Errorf("%w: %w", ErrEnvObservable, ErrNoValidSamples)
	}
	return percentile(valid, 80), nil
}

// BeamRate reads the current repetition rate in Hz. A rate that is missing,
// NaN or non-positive is an error; callers that only need a nap estimate use
// napTime instead, which absorbs the failure.
func (s *Sampler) BeamRate(ctx context.Context) (float64, error) {
	vals, err := s.iface.GetValue(ctx, BeamRateChannel)
	if err != nil {
		return 0, err
	}
	rate, err := scalarOf(vals)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(rate) || rate <= 0 {
		return 0, fmt.Errorf("beam rate %v out of range", rate)
	}
	return rate, nil
}

// napTime estimates how long the machine-side circular buffer needs to
// accumulate points fresh shots. Any problem reading the rate falls back to
// one second; the acquisition proceeds either way.
func (s *Sampler) napTime(ctx context.Context, points int) time.Duration {
	rate, err := s.BeamRate(ctx)
	if err != nil {
		s.log.Warn("beam rate unavailable, napping the default",
			zap.Duration("nap", defaultNap),
			zap.Error(err))
		return defaultNap
	}
	s.log.Info("beam rate", zap.Float64("hz", rate))
	return time.Duration(float64(points) / rate * float64(time.Second))
}

// windowStats fetches the trailing window of both channels in one batched
// call, masks the pair, and reduces it.
func (s *Sampler) windowStats(ctx context.Context, gasChannel, lossChannel string, points int) (PulseStats, error) {
	results, err := s.iface.GetValues(ctx, []string{gasChannel, lossChannel})
	if err != nil {
		return PulseStats{}, err
	}
	gasRaw, ok := results[gasChannel]
	if !ok {
		return PulseStats{}, fmt.Errorf("%w: %s", ErrMissingChannel, gasChannel)
	}
	lossRaw, ok := results[lossChannel]
	if !ok {
		return PulseStats{}, fmt.Errorf("%w: %s", ErrMissingChannel, lossChannel)
	}
	gasRaw = lastN(gasRaw, points)
	lossRaw = lastN(lossRaw, points)
	if len(gasRaw) != len(lossRaw) {
		return PulseStats{}, fmt.Errorf("%w: gas %d, loss %d", ErrShapeMismatch, len(gasRaw), len(lossRaw))
	}
	gas, loss := validPair(gasRaw, lossRaw)
	return reduce(gas, loss)
}

// IsPulseIntensityObserved reports whether any observable name selects the
// pulse-intensity statistic.
func IsPulseIntensityObserved(names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(name, "pulse_intensity") {
			return true
		}
	}
	return false
}

// scalarOf interprets a channel read as a single scalar.
func scalarOf(vals []float64) (float64, error) {
	if len(vals) == 0 {
		return 0, errors.New("empty reading")
	}
	return vals[0], nil
}
