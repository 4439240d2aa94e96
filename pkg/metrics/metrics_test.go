package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CommandsTotal", CommandsTotal},
		{"CommandDuration", CommandDuration},
		{"SessionsOpen", SessionsOpen},
		{"SessionsOpenedTotal", SessionsOpenedTotal},
		{"UnitsDecodedTotal", UnitsDecodedTotal},
		{"SeekDiscardedFrames", SeekDiscardedFrames},
		{"DecodeErrorsTotal", DecodeErrorsTotal},
		{"FramesRenderedTotal", FramesRenderedTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitialize_CreatesSeries(t *testing.T) {
	Initialize()

	if n := testutil.CollectAndCount(UnitsDecodedTotal); n < 2 {
		t.Errorf("expected at least 2 series for UnitsDecodedTotal, got %d", n)
	}
	if n := testutil.CollectAndCount(DecodeErrorsTotal); n < 2 {
		t.Errorf("expected at least 2 series for DecodeErrorsTotal, got %d", n)
	}
}

func TestUnitsDecodedTotal_Increments(t *testing.T) {
	before := testutil.ToFloat64(UnitsDecodedTotal.WithLabelValues("video"))
	UnitsDecodedTotal.WithLabelValues("video").Inc()
	after := testutil.ToFloat64(UnitsDecodedTotal.WithLabelValues("video"))

	if after-before != 1 {
		t.Errorf("expected increment of 1, got %v", after-before)
	}
}
