package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("registering collector: %v", err)
		}
	}
}

func TestAcquisitionOutcomes(t *testing.T) {
	AcquisitionsTotal.WithLabelValues("ok").Inc()
	AcquisitionsTotal.WithLabelValues("error").Inc()
	AcquisitionsTotal.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(AcquisitionsTotal.WithLabelValues("ok")); got < 2 {
		t.Errorf("ok count = %v, want at least 2", got)
	}
	if got := testutil.ToFloat64(AcquisitionsTotal.WithLabelValues("error")); got < 1 {
		t.Errorf("error count = %v, want at least 1", got)
	}
}

func TestBeamRateGauge(t *testing.T) {
	BeamRateHz.Set(119.9)
	if got := testutil.ToFloat64(BeamRateHz); got != 119.9 {
		t.Errorf("BeamRateHz = %v, want 119.9", got)
	}
}
