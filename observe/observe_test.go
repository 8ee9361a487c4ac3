package observe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
	"time"
)

// fakeInterface is an in-memory control system. Channels read from values
// unless errs overrides them; batchErr fails every batched read and
// batchOmit drops channels from the batched response without an error.
type fakeInterface struct {
	values    map[string][]float64
	errs      map[string]error
	batchErr  error
	batchOmit []string
	calls     []string
}

func (f *fakeInterface) GetValue(ctx context.Context, name string) ([]float64, error) {
	f.calls = append(f.calls, name)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	vals, ok := f.values[name]
	if !ok {
		return nil, fmt.Errorf("no such channel %q", name)
	}
	return vals, nil
}

func (f *fakeInterface) GetValues(ctx context.Context, names []string) (map[string][]float64, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		if slices.Contains(f.batchOmit, name) {
			continue
		}
		vals, err := f.GetValue(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = vals
	}
	return out, nil
}

// napSpy records the waits a sampler requests instead of sleeping.
type napSpy struct {
	naps []time.Duration
}

func (n *napSpy) nap(d time.Duration) {
	n.naps = append(n.naps, d)
}

const lossChannel = "CBLM:UNDH:1375:I0_LOSSHSTBR"

func TestIntensityAndLossSXR(t *testing.T) {
	nan := math.NaN()
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {2.0},
			SXRGasChannel:   {9, 9, 9, 9, 1.0, nan, 3.0, 4.0},
			lossChannel:     {9, 9, 9, 9, 0.1, 0.2, nan, 0.4},
		},
	}
	spy := &napSpy{}
	s := NewSampler(fake, WithNap(spy.nap))

	st, err := s.IntensityAndLoss(context.Background(), false, 4, lossChannel, "241")
	if err != nil {
		t.Fatalf("IntensityAndLoss returned error: %v", err)
	}

	want := PulseStats{GasP80: 3.4, GasMean: 2.5, GasMedian: 2.5, GasStd: 1.5, LossP80: 0.34}
	if !closeTo(st.GasP80, want.GasP80) ||
		!closeTo(st.GasMean, want.GasMean) ||
		!closeTo(st.GasMedian, want.GasMedian) ||
		!closeTo(st.GasStd, want.GasStd) ||
		!closeTo(st.LossP80, want.LossP80) {
		t.Errorf("IntensityAndLoss = %+v, want %+v", st, want)
	}

	// 4 shots at 2 Hz need a 2 second fill.
	if len(spy.naps) != 1 || spy.naps[0] != 2*time.Second {
		t.Errorf("naps = %v, want [2s]", spy.naps)
	}
}

func TestIntensityAndLossHXRChannel(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel:              {120.0},
			"GDET:FEE1:241:ENRCHSTCUHBR": {1.0, 4.0},
			lossChannel:                  {0.1, 0.4},
		},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	st, err := s.IntensityAndLoss(context.Background(), true, 2, lossChannel, "241")
	if err != nil {
		t.Fatalf("IntensityAndLoss returned error: %v", err)
	}
	if !closeTo(st.GasMean, 2.5) {
		t.Errorf("GasMean = %v, want 2.5", st.GasMean)
	}
	if slices.Contains(fake.calls, SXRGasChannel) || slices.Contains(fake.calls, SXRGasScalarChannel) {
		t.Errorf("hard-x-ray acquisition touched soft-x-ray channels: %v", fake.calls)
	}
}

func TestIntensityAndLossHXRFailure(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {120.0},
		},
		batchErr: errors.New("gateway down"),
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.IntensityAndLoss(context.Background(), true, 120, lossChannel, "241")
	if !errors.Is(err, ErrEnvObservable) {
		t.Fatalf("error = %v, want ErrEnvObservable", err)
	}
	if slices.Contains(fake.calls, SXRGasScalarChannel) {
		t.Errorf("hard-x-ray path attempted the scalar fallback: %v", fake.calls)
	}
}

func TestIntensityAndLossSXRFallback(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel:     {120.0},
			SXRGasScalarChannel: {2.75},
		},
		batchErr: errors.New("gateway down"),
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	st, err := s.IntensityAndLoss(context.Background(), false, 120, lossChannel, "241")
	if err != nil {
		t.Fatalf("IntensityAndLoss returned error: %v", err)
	}
	want := PulseStats{GasP80: 2.75, GasMean: 2.75, GasMedian: 2.75, GasStd: 0, LossP80: 0}
	if st != want {
		t.Errorf("IntensityAndLoss = %+v, want %+v", st, want)
	}
}

func TestIntensityAndLossSXRFallbackScalarError(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {120.0},
		},
		errs: map[string]error{
			SXRGasScalarChannel: errors.New("scalar timeout"),
		},
		batchErr: errors.New("gateway down"),
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.IntensityAndLoss(context.Background(), false, 120, lossChannel, "241")
	if err == nil {
		t.Fatal("IntensityAndLoss returned nil error")
	}
	if errors.Is(err, ErrEnvObservable) {
		t.Errorf("scalar fallback failure reported as ErrEnvObservable: %v", err)
	}
}

func TestNapDefaultsWhenRateUnavailable(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeInterface
	}{
		{"missing channel", &fakeInterface{values: map[string][]float64{}}},
		{"zero rate", &fakeInterface{values: map[string][]float64{BeamRateChannel: {0}}}},
		{"negative rate", &fakeInterface{values: map[string][]float64{BeamRateChannel: {-10}}}},
		{"nan rate", &fakeInterface{values: map[string][]float64{BeamRateChannel: {math.NaN()}}}},
		{"empty reading", &fakeInterface{values: map[string][]float64{BeamRateChannel: {}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(tt.fake, WithNap(func(time.Duration) {}))
			if d := s.napTime(context.Background(), 600); d != time.Second {
				t.Errorf("napTime = %v, want 1s", d)
			}
		})
	}
}

func TestBeamRate(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{BeamRateChannel: {119.9}},
	}
	s := NewSampler(fake)
	rate, err := s.BeamRate(context.Background())
	if err != nil {
		t.Fatalf("BeamRate returned error: %v", err)
	}
	if !closeTo(rate, 119.9) {
		t.Errorf("BeamRate = %v, want 119.9", rate)
	}
}

func TestLoss(t *testing.T) {
	nan := math.NaN()
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {2.0},
			lossChannel:     {nan, 0.1, 0.2, 0.3, 0.4, 0.5},
		},
	}
	spy := &napSpy{}
	s := NewSampler(fake, WithNap(spy.nap))

	p80, err := s.Loss(context.Background(), 4, lossChannel)
	if err != nil {
		t.Fatalf("Loss returned error: %v", err)
	}
	if !closeTo(p80, 0.44) {
		t.Errorf("Loss = %v, want 0.44", p80)
	}
	if len(spy.naps) != 1 || spy.naps[0] != 2*time.Second {
		t.Errorf("naps = %v, want [2s]", spy.naps)
	}
}

func TestLossFetchError(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{BeamRateChannel: {120.0}},
		errs:   map[string]error{lossChannel: errors.New("gateway down")},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.Loss(context.Background(), 120, lossChannel)
	if !errors.Is(err, ErrEnvObservable) {
		t.Fatalf("error = %v, want ErrEnvObservable", err)
	}
}

func TestLossAllInvalid(t *testing.T) {
	nan := math.NaN()
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {120.0},
			lossChannel:     {nan, nan, nan},
		},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.Loss(context.Background(), 3, lossChannel)
	if !errors.Is(err, ErrEnvObservable) || !errors.Is(err, ErrNoValidSamples) {
		t.Fatalf("error = %v, want ErrEnvObservable wrapping ErrNoValidSamples", err)
	}
}

func TestLossNonPositivePoints(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			BeamRateChannel: {120.0},
			lossChannel:     {0.1, 0.2, 0.3},
		},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	// An empty window selects nothing, so the reduction fails downstream.
	_, err := s.Loss(context.Background(), 0, lossChannel)
	if !errors.Is(err, ErrNoValidSamples) {
		t.Fatalf("error = %v, want ErrNoValidSamples", err)
	}
}

func TestWindowStatsMissingChannel(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			SXRGasChannel: {1.0, 4.0},
			lossChannel:   {0.1, 0.4},
		},
		batchOmit: []string{lossChannel},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.windowStats(context.Background(), SXRGasChannel, lossChannel, 2)
	if !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("error = %v, want ErrMissingChannel", err)
	}
}

func TestWindowStatsShapeMismatch(t *testing.T) {
	fake := &fakeInterface{
		values: map[string][]float64{
			SXRGasChannel: {1.0, 2.0, 3.0},
			lossChannel:   {0.1, 0.4},
		},
	}
	s := NewSampler(fake, WithNap(func(time.Duration) {}))

	_, err := s.windowStats(context.Background(), SXRGasChannel, lossChannel, 10)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
}

func TestIsPulseIntensityObserved(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  bool
	}{
		{"exact", []string{"pulse_intensity"}, true},
		{"suffixed", []string{"pulse_intensity_p80"}, true},
		{"mixed", []string{"beam_loss", "pulse_intensity_mean"}, true},
		{"absent", []string{"beam_loss"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPulseIntensityObserved(tt.names); got != tt.want {
				t.Errorf("IsPulseIntensityObserved(%v) = %v, want %v", tt.names, got, tt.want)
			}
		})
	}
}
