package accel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Errors returned by log ingestion.
var (
	ErrMalformedLog     = errors.New("accel: malformed log")
	ErrInsufficientData = errors.New("accel: not enough samples")
	ErrUnknownAxis      = errors.New("accel: unknown axis")
)

// AxisError attributes an ingestion failure to a single axis. ParseCSV
// joins one per failed axis so callers can keep the remaining axes.
type AxisError struct {
	Axis string
	Err  error
}

func (e *AxisError) Error() string { return fmt.Sprintf("axis %s: %v", e.Axis, e.Err) }

func (e *AxisError) Unwrap() error { return e.Err }

// DefaultMinSamples is the smallest per-axis sample count that still yields
// a usable averaged spectrum.
const DefaultMinSamples = 64

// DefaultIntervalTolerance is the largest coefficient of variation of the
// inter-sample intervals accepted without resampling.
const DefaultIntervalTolerance = 0.05

// Options configures log ingestion. The zero value selects the defaults.
type Options struct {
	MinSamples        int     // minimum samples per axis, default DefaultMinSamples
	IntervalTolerance float64 // CV threshold triggering resampling, default DefaultIntervalTolerance
}

func (o Options) finalized() Options {
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	if o.IntervalTolerance <= 0 {
		o.IntervalTolerance = DefaultIntervalTolerance
	}
	return o
}

// AxisLog is one axis of an ingested log. It is immutable once produced.
type AxisLog struct {
	Axis       string    // "x", "y", or "z"
	Times      []float64 // seconds, uniform after ingestion
	Accel      []float64 // acceleration samples, device units
	SampleRate float64   // Hz, derived from the median interval
	Resampled  bool      // set when irregular sampling forced interpolation
}

// knownAxes maps recognized acceleration column headers to axis names.
var knownAxes = map[string]string{
	"accel_x": "x",
	"accel_y": "y",
	"accel_z": "z",
}

// ParseCSV parses a raw accelerometer log into one AxisLog per present axis.
//
// The header row must name a time column ("time", Klipper's "#time" comment
// style is accepted) and at least one accel_x/accel_y/accel_z column. When
// axes are given, only those axes are returned; requesting an axis the log
// does not carry is an error. Failures of a single axis (too few samples)
// do not affect the other axes; they are reported in the returned error,
// which wraps ErrInsufficientData, alongside any successfully ingested axes.
func ParseCSV(data []byte, opts Options, axes ...string) ([]AxisLog, error) {
	o := opts.finalized()

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedLog)
	}

	timeCol, axisCols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	selected, err := selectAxes(axisCols, axes)
	if err != nil {
		return nil, err
	}

	times := make([]float64, 0, len(rows)-1)
	accel := make(map[string][]float64, len(selected))
	for axis := range selected {
		accel[axis] = make([]float64, 0, len(rows)-1)
	}

	for i, row := range rows[1:] {
		if len(row) == 0 || strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		ts, err := parseField(row, timeCol)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLog, i+2, err)
		}
		if n := len(times); n > 0 && ts <= times[n-1] {
			return nil, fmt.Errorf("%w: row %d: timestamp %g not increasing", ErrMalformedLog, i+2, ts)
		}
		times = append(times, ts)

		for axis, col := range selected {
			v, err := parseField(row, col)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLog, i+2, err)
			}
			accel[axis] = append(accel[axis], v)
		}
	}

	var logs []AxisLog
	var failed []error
	for _, axis := range sortedAxes(selected) {
		log, err := buildAxisLog(axis, times, accel[axis], o)
		if err != nil {
			failed = append(failed, &AxisError{Axis: axis, Err: err})
			continue
		}
		logs = append(logs, log)
	}

	return logs, errors.Join(failed...)
}

// InferAxis guesses the axis a log file belongs to from its file name.
// Returns "" when the name carries no hint.
func InferAxis(path string) string {
	name := strings.ToLower(filepath.Base(path))
	for _, axis := range []string{"x", "y", "z"} {
		for _, pat := range []string{"axis_" + axis, "_" + axis + ".", "-" + axis + ".", "_" + axis + "_", "-" + axis + "-"} {
			if strings.Contains(name, pat) {
				return axis
			}
		}
	}
	return ""
}

func parseHeader(header []string) (timeCol int, axisCols map[string]int, err error) {
	timeCol = -1
	axisCols = make(map[string]int)
	for i, field := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(field), "#")))
		switch {
		case name == "time" || name == "t":
			timeCol = i
		default:
			if axis, ok := knownAxes[name]; ok {
				axisCols[axis] = i
			}
		}
	}
	if timeCol < 0 {
		return 0, nil, fmt.Errorf("%w: header lacks a time column: %v", ErrMalformedLog, header)
	}
	if len(axisCols) == 0 {
		return 0, nil, fmt.Errorf("%w: header lacks acceleration columns: %v", ErrMalformedLog, header)
	}
	return timeCol, axisCols, nil
}

func selectAxes(axisCols map[string]int, axes []string) (map[string]int, error) {
	if len(axes) == 0 {
		return axisCols, nil
	}
	selected := make(map[string]int, len(axes))
	for _, axis := range axes {
		axis = strings.ToLower(axis)
		col, ok := axisCols[axis]
		if !ok {
			return nil, fmt.Errorf("%w: %q not present in log", ErrUnknownAxis, axis)
		}
		selected[axis] = col
	}
	return selected, nil
}

func sortedAxes(cols map[string]int) []string {
	axes := make([]string, 0, len(cols))
	for axis := range cols {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	return axes
}

func parseField(row []string, col int) (float64, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("missing column %d", col)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", row[col])
	}
	return v, nil
}

// buildAxisLog derives the sample rate from the median inter-sample interval
// and resamples onto a uniform grid when the intervals are too irregular.
func buildAxisLog(axis string, times, accel []float64, o Options) (AxisLog, error) {
	if len(times) < o.MinSamples {
		return AxisLog{}, fmt.Errorf("%w: %d < %d", ErrInsufficientData, len(times), o.MinSamples)
	}

	intervals := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals[i-1] = times[i] - times[i-1]
	}

	sorted := append([]float64(nil), intervals...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if median <= 0 {
		return AxisLog{}, fmt.Errorf("%w: degenerate sample spacing", ErrMalformedLog)
	}

	mean, std := stat.MeanStdDev(intervals, nil)
	cv := 0.0
	if mean > 0 {
		cv = std / mean
	}

	rate := 1 / median
	if cv <= o.IntervalTolerance {
		return AxisLog{
			Axis:       axis,
			Times:      append([]float64(nil), times...),
			Accel:      append([]float64(nil), accel...),
			SampleRate: rate,
		}, nil
	}

	// Irregular sampling: interpolate onto a uniform grid at the median rate.
	gridTimes, gridAccel := resampleUniform(times, accel, median)
	if len(gridAccel) < o.MinSamples {
		return AxisLog{}, fmt.Errorf("%w: %d < %d after resampling", ErrInsufficientData, len(gridAccel), o.MinSamples)
	}
	return AxisLog{
		Axis:       axis,
		Times:      gridTimes,
		Accel:      gridAccel,
		SampleRate: rate,
		Resampled:  true,
	}, nil
}

// resampleUniform linearly interpolates (times, values) onto a grid with
// spacing dt starting at times[0].
func resampleUniform(times, values []float64, dt float64) ([]float64, []float64) {
	span := times[len(times)-1] - times[0]
	n := int(math.Floor(span/dt)) + 1

	gridTimes := make([]float64, n)
	gridValues := make([]float64, n)
	j := 0
	for i := 0; i < n; i++ {
		t := times[0] + float64(i)*dt
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		t0, t1 := times[j], times[j+1]
		frac := (t - t0) / (t1 - t0)
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		gridTimes[i] = t
		gridValues[i] = values[j] + frac*(values[j+1]-values[j])
	}
	return gridTimes, gridValues
}

// Duration returns the covered time span in seconds.
func (l AxisLog) Duration() float64 {
	if len(l.Times) < 2 {
		return 0
	}
	return l.Times[len(l.Times)-1] - l.Times[0]
}
