package calibrate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/internal/testutil"
	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/report"
)

func resonantLog() []byte {
	samples := testutil.DampedBursts(50, 0.05, 3200, 6400, 1600, 17)
	return testutil.CSVLog("x", 3200, samples)
}

func bandOptions() Option {
	return WithPSDOptions(psd.Options{BandMin: 10, BandMax: 150})
}

func TestRunSingleAxis(t *testing.T) {
	rep, err := Run(context.Background(), resonantLog(), nil, bandOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Axes) != 1 || rep.Axes[0].Axis != "x" {
		t.Fatalf("axes = %+v, want one x axis", rep.Axes)
	}
	if len(rep.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", rep.Failed)
	}

	ax := rep.Axes[0]
	if math.Abs(ax.Peak.Freq-50) > 2 {
		t.Fatalf("peak at %g Hz, want near 50", ax.Peak.Freq)
	}
	best := ax.Result.Best
	if best.Freq < 45 || best.Freq > 55 {
		t.Fatalf("best freq %g Hz, want within [45, 55]", best.Freq)
	}
	if best.Reduction < 90 {
		t.Fatalf("reduction %.1f%%, want >= 90", best.Reduction)
	}
	if ax.Result.BelowTarget {
		t.Fatalf("resonant log flagged below target")
	}
}

func TestRunAxisIsolation(t *testing.T) {
	resonant := testutil.DampedBursts(50, 0.05, 3200, 6400, 1600, 17)
	flat := testutil.DeterministicNoise(5, 1, 6400)
	data := testutil.CSVLogMulti(3200, []string{"x", "y"}, [][]float64{resonant, flat})

	rep, err := Run(context.Background(), data, nil, bandOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Axes) != 1 || rep.Axes[0].Axis != "x" {
		t.Fatalf("axes = %+v, want x only", rep.Axes)
	}
	if !errors.Is(rep.Failed["y"], psd.ErrNoResonance) {
		t.Fatalf("Failed[y] = %v, want ErrNoResonance", rep.Failed["y"])
	}
}

func TestRunMalformedLog(t *testing.T) {
	_, err := Run(context.Background(), []byte("not,a\nlog"), nil)
	if !errors.Is(err, accel.ErrMalformedLog) {
		t.Fatalf("err = %v, want ErrMalformedLog", err)
	}
}

func TestRunNoUsableAxis(t *testing.T) {
	data := testutil.CSVLog("x", 3200, testutil.DeterministicNoise(5, 1, 6400))

	rep, err := Run(context.Background(), data, nil, bandOptions())
	if !errors.Is(err, ErrNoUsableAxis) {
		t.Fatalf("err = %v, want ErrNoUsableAxis", err)
	}
	if !errors.Is(err, psd.ErrNoResonance) {
		t.Fatalf("err = %v, want wrapped ErrNoResonance", err)
	}
	if !errors.Is(rep.Failed["x"], psd.ErrNoResonance) {
		t.Fatalf("Failed[x] = %v, want ErrNoResonance", rep.Failed["x"])
	}
}

func TestRunAxisSelection(t *testing.T) {
	resonant := testutil.DampedBursts(50, 0.05, 3200, 6400, 1600, 17)
	data := testutil.CSVLogMulti(3200, []string{"x", "y"}, [][]float64{resonant, resonant})

	rep, err := Run(context.Background(), data, []string{"y"}, bandOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Axes) != 1 || rep.Axes[0].Axis != "y" {
		t.Fatalf("axes = %+v, want y only", rep.Axes)
	}
}

func TestRunCacheReuse(t *testing.T) {
	cache := NewCache(0)
	data := resonantLog()

	first, err := Run(context.Background(), data, nil, bandOptions(), WithCache(cache))
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d responses, want 1", cache.Len())
	}

	second, err := Run(context.Background(), data, nil, bandOptions(), WithCache(cache))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache grew to %d responses on identical input", cache.Len())
	}
	if first.Axes[0].Result.Best != second.Axes[0].Result.Best {
		t.Fatalf("cached run diverged: %+v vs %+v",
			first.Axes[0].Result.Best, second.Axes[0].Result.Best)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, resonantLog(), nil, bandOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRecommendationsRenderAsConfig(t *testing.T) {
	rep, err := Run(context.Background(), resonantLog(), nil, bandOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := report.ConfigText(rep.Recommendations())
	if !strings.Contains(text, "shaper_type_x = ") || !strings.Contains(text, "shaper_freq_x = ") {
		t.Fatalf("unexpected config text: %q", text)
	}
	if _, err := report.ParseConfigText(text); err != nil {
		t.Fatalf("rendered config does not parse back: %v", err)
	}
}
