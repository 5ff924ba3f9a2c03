package psd

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/internal/testutil"
)

func axisLog(samples []float64, rate float64) accel.AxisLog {
	times := make([]float64, len(samples))
	for i := range times {
		times[i] = float64(i) / rate
	}
	return accel.AxisLog{Axis: "x", Times: times, Accel: samples, SampleRate: rate}
}

func TestEstimateBandRestriction(t *testing.T) {
	log := axisLog(testutil.DeterministicSine(50, 3200, 1, 6400), 3200)

	resp, err := Estimate(log, Options{BandMin: 10, BandMax: 150})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if resp.Axis != "x" {
		t.Fatalf("axis = %q, want x", resp.Axis)
	}
	if resp.Freq[0] < 10 || resp.Freq[len(resp.Freq)-1] > 150 {
		t.Fatalf("band [%g, %g] outside [10, 150]", resp.Freq[0], resp.Freq[len(resp.Freq)-1])
	}
	for i := 1; i < len(resp.Freq); i++ {
		if !(resp.Freq[i] > resp.Freq[i-1]) {
			t.Fatalf("frequencies not strictly increasing at %d", i)
		}
	}
	for i, a := range resp.Amplitude {
		if a < 0 {
			t.Fatalf("negative amplitude %g at bin %d", a, i)
		}
	}
	testutil.RequireFinite(t, resp.Amplitude)
}

func TestEstimateSinePeakLocation(t *testing.T) {
	log := axisLog(testutil.DeterministicSine(50, 3200, 1, 6400), 3200)

	resp, err := Estimate(log, Options{BandMin: 10, BandMax: 150})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	peak, err := DominantPeak(resp, 0)
	if err != nil {
		t.Fatalf("DominantPeak: %v", err)
	}
	if math.Abs(peak.Freq-50) > 1 {
		t.Fatalf("peak at %g Hz, want 50 +- 1", peak.Freq)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	log := axisLog(testutil.DampedBursts(50, 0.05, 3200, 6400, 3200, 11), 3200)

	a, err := Estimate(log, Options{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	b, err := Estimate(log, Options{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i := range a.Amplitude {
		if a.Amplitude[i] != b.Amplitude[i] {
			t.Fatalf("bin %d: %g != %g on identical input", i, a.Amplitude[i], b.Amplitude[i])
		}
	}
}

func TestResonancePeakAndDamping(t *testing.T) {
	const (
		f0   = 50.0
		zeta = 0.05
		rate = 3200.0
	)
	// Long recording keeps the averaged spectrum close to the Lorentzian,
	// so the half-power bandwidth resolves the damping ratio.
	log := axisLog(testutil.DampedBursts(f0, zeta, rate, 16384, 4096, 11), rate)

	resp, err := Estimate(log, Options{BandMin: 10, BandMax: 150, SegmentSize: 4096})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	peak, err := DominantPeak(resp, 0)
	if err != nil {
		t.Fatalf("DominantPeak: %v", err)
	}
	if math.Abs(peak.Freq-f0) > 1 {
		t.Fatalf("peak at %g Hz, want %g +- 1", peak.Freq, f0)
	}
	if relErr := math.Abs(peak.Damping-zeta) / zeta; relErr > 0.2 {
		t.Fatalf("damping %g, want %g within 20%% (got %.0f%%)", peak.Damping, zeta, relErr*100)
	}
}

func TestFlatNoiseNoResonance(t *testing.T) {
	log := axisLog(testutil.DeterministicNoise(5, 1, 6400), 3200)

	resp, err := Estimate(log, Options{BandMin: 10, BandMax: 150})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if _, err := DetectPeaks(resp, DefaultNoiseFloor); !errors.Is(err, ErrNoResonance) {
		t.Fatalf("err = %v, want ErrNoResonance", err)
	}
}

func TestEstimateShortSignal(t *testing.T) {
	log := axisLog(testutil.DeterministicSine(50, 3200, 1, 1), 3200)
	if _, err := Estimate(log, Options{}); !errors.Is(err, ErrShortSignal) {
		t.Fatalf("err = %v, want ErrShortSignal", err)
	}
}

func TestEstimateInvalidBand(t *testing.T) {
	log := axisLog(testutil.DeterministicSine(50, 3200, 1, 6400), 3200)
	if _, err := Estimate(log, Options{BandMin: 150, BandMax: 10}); !errors.Is(err, ErrInvalidBand) {
		t.Fatalf("err = %v, want ErrInvalidBand", err)
	}
}

func TestEstimateInvalidSegmentSize(t *testing.T) {
	log := axisLog(testutil.DeterministicSine(50, 3200, 1, 6400), 3200)
	if _, err := Estimate(log, Options{SegmentSize: 1000}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDetectPeaksStrongestFirst(t *testing.T) {
	// Two synthetic peaks over a flat floor; detection must order them by
	// amplitude, not position.
	freq := make([]float64, 141)
	amp := make([]float64, 141)
	for i := range freq {
		freq[i] = float64(10 + i)
		amp[i] = 0.1
	}
	amp[30], amp[29], amp[31] = 1.0, 0.6, 0.6 // 40 Hz
	amp[90], amp[89], amp[91] = 2.0, 1.2, 1.2 // 100 Hz
	resp := Response{Axis: "x", Freq: freq, Amplitude: amp}

	peaks, err := DetectPeaks(resp, DefaultNoiseFloor)
	if err != nil {
		t.Fatalf("DetectPeaks: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2", len(peaks))
	}
	if math.Abs(peaks[0].Freq-100) > 1 || math.Abs(peaks[1].Freq-40) > 1 {
		t.Fatalf("peaks at %g, %g; want 100 then 40", peaks[0].Freq, peaks[1].Freq)
	}
}
