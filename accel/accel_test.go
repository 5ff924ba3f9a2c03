package accel

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// buildLog renders a CSV log with the given per-sample timestamps and a
// simple deterministic value per axis column.
func buildLog(times []float64, axes ...string) []byte {
	var b strings.Builder
	b.WriteString("#time")
	for _, axis := range axes {
		fmt.Fprintf(&b, ",accel_%s", axis)
	}
	b.WriteString("\n")
	for i, t := range times {
		fmt.Fprintf(&b, "%.7f", t)
		for range axes {
			fmt.Fprintf(&b, ",%.6f", math.Sin(float64(i)))
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func uniformTimes(n int, dt float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times
}

func TestParseCSVUniform(t *testing.T) {
	data := buildLog(uniformTimes(200, 1.0/3200), "x", "y")

	logs, err := ParseCSV(data, Options{})
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d axis logs, want 2", len(logs))
	}
	for _, log := range logs {
		if log.Axis != "x" && log.Axis != "y" {
			t.Fatalf("unexpected axis %q", log.Axis)
		}
		if len(log.Accel) != 200 {
			t.Fatalf("axis %s: %d samples, want 200", log.Axis, len(log.Accel))
		}
		if math.Abs(log.SampleRate-3200) > 1 {
			t.Fatalf("axis %s: sample rate %g, want ~3200", log.Axis, log.SampleRate)
		}
		if log.Resampled {
			t.Fatalf("axis %s: uniform input flagged as resampled", log.Axis)
		}
	}
}

func TestParseCSVAxisSelection(t *testing.T) {
	data := buildLog(uniformTimes(100, 0.001), "x", "y", "z")

	logs, err := ParseCSV(data, Options{}, "y")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(logs) != 1 || logs[0].Axis != "y" {
		t.Fatalf("got %v, want single y axis", logs)
	}

	if _, err := ParseCSV(buildLog(uniformTimes(100, 0.001), "x"), Options{}, "z"); !errors.Is(err, ErrUnknownAxis) {
		t.Fatalf("missing axis: err = %v, want ErrUnknownAxis", err)
	}
}

func TestParseCSVMalformedHeader(t *testing.T) {
	cases := []string{
		"voltage,current\n1,2\n",
		"time\n0.0\n",
		"",
	}
	for _, in := range cases {
		if _, err := ParseCSV([]byte(in), Options{}); !errors.Is(err, ErrMalformedLog) {
			t.Fatalf("input %q: err = %v, want ErrMalformedLog", in, err)
		}
	}
}

func TestParseCSVNonIncreasingTime(t *testing.T) {
	times := uniformTimes(100, 0.001)
	times[50] = times[49] // duplicate timestamp
	if _, err := ParseCSV(buildLog(times, "x"), Options{}); !errors.Is(err, ErrMalformedLog) {
		t.Fatalf("err = %v, want ErrMalformedLog", err)
	}
}

func TestParseCSVInsufficientData(t *testing.T) {
	data := buildLog(uniformTimes(10, 0.001), "x")
	logs, err := ParseCSV(data, Options{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	if len(logs) != 0 {
		t.Fatalf("got %d logs for degenerate input, want 0", len(logs))
	}
}

func TestParseCSVCustomMinSamples(t *testing.T) {
	data := buildLog(uniformTimes(80, 0.001), "x", "y")
	logs, err := ParseCSV(data, Options{MinSamples: 64})
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if _, err := ParseCSV(data, Options{MinSamples: 100}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestParseCSVIrregularSamplingResamples(t *testing.T) {
	// Alternate short and long intervals: mean 1 ms, CV well above 5%.
	times := make([]float64, 200)
	tcur := 0.0
	for i := range times {
		times[i] = tcur
		if i%2 == 0 {
			tcur += 0.0007
		} else {
			tcur += 0.0013
		}
	}

	logs, err := ParseCSV(buildLog(times, "x"), Options{})
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	log := logs[0]
	if !log.Resampled {
		t.Fatal("irregular input not flagged as resampled")
	}
	for i := 1; i < len(log.Times); i++ {
		dt := log.Times[i] - log.Times[i-1]
		if math.Abs(dt-(log.Times[1]-log.Times[0])) > 1e-12 {
			t.Fatalf("grid not uniform at %d: dt=%g", i, dt)
		}
	}
}

func TestInferAxis(t *testing.T) {
	cases := map[string]string{
		"calibration_data_axis_x.csv": "x",
		"resonances_y-20240101.csv":   "",
		"raw_data_axis_y.csv":         "y",
		"accel-z.csv":                 "z",
		"log.csv":                     "",
	}
	for path, want := range cases {
		if got := InferAxis(path); got != want {
			t.Fatalf("InferAxis(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDuration(t *testing.T) {
	logs, err := ParseCSV(buildLog(uniformTimes(101, 0.01), "x"), Options{})
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if got := logs[0].Duration(); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("Duration = %g, want 1.0", got)
	}
}
