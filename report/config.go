package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-shaper/shaper"
	"github.com/cwbudde/algo-shaper/tune"
)

// Errors returned by configuration parsing.
var (
	ErrBadConfig = errors.New("report: malformed configuration text")
)

// AxisRecommendation pairs an axis with its winning candidate.
type AxisRecommendation struct {
	Axis string
	Best tune.Candidate
}

// Setting is a parsed per-axis shaper configuration.
type Setting struct {
	Type shaper.Type
	Freq float64
}

// ConfigText renders the winning candidates as a declarative configuration
// block, two lines per axis:
//
//	[input_shaper]
//	shaper_type_x = mzv
//	shaper_freq_x = 58.2
//
// Axes are emitted in alphabetical order for stable output.
func ConfigText(recs []AxisRecommendation) string {
	sorted := append([]AxisRecommendation(nil), recs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Axis < sorted[j].Axis })

	var b strings.Builder
	b.WriteString("[input_shaper]\n")
	for _, rec := range sorted {
		fmt.Fprintf(&b, "shaper_type_%s = %s\n", rec.Axis, rec.Best.Type)
		fmt.Fprintf(&b, "shaper_freq_%s = %.1f\n", rec.Axis, rec.Best.Freq)
	}
	return b.String()
}

// ParseConfigText parses a configuration block produced by ConfigText back
// into per-axis settings.
func ParseConfigText(text string) (map[string]Setting, error) {
	settings := make(map[string]Setting)
	sawSection := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if line != "[input_shaper]" {
				return nil, fmt.Errorf("%w: unexpected section %q", ErrBadConfig, line)
			}
			sawSection = true
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %q", ErrBadConfig, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case strings.HasPrefix(key, "shaper_type_"):
			axis := strings.TrimPrefix(key, "shaper_type_")
			typ, err := shaper.ParseType(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
			}
			s := settings[axis]
			s.Type = typ
			settings[axis] = s
		case strings.HasPrefix(key, "shaper_freq_"):
			axis := strings.TrimPrefix(key, "shaper_freq_")
			freq, err := strconv.ParseFloat(value, 64)
			if err != nil || freq <= 0 || math.IsInf(freq, 0) {
				return nil, fmt.Errorf("%w: frequency %q", ErrBadConfig, value)
			}
			s := settings[axis]
			s.Freq = freq
			settings[axis] = s
		default:
			return nil, fmt.Errorf("%w: unknown key %q", ErrBadConfig, key)
		}
	}

	if !sawSection || len(settings) == 0 {
		return nil, fmt.Errorf("%w: no [input_shaper] settings found", ErrBadConfig)
	}
	for axis, s := range settings {
		if s.Freq == 0 {
			return nil, fmt.Errorf("%w: axis %s lacks a frequency", ErrBadConfig, axis)
		}
	}
	return settings, nil
}

// SummaryLine formats one candidate the way the recommendation list shows
// it, e.g.
//
//	MZV (58.2 Hz, vibr=1.2%, sm~=0.13, accel<=3600)
//
// The acceleration limit is rounded to the nearest hundred.
func SummaryLine(c tune.Candidate) string {
	return fmt.Sprintf("%s (%.1f Hz, vibr=%.1f%%, sm~=%.2f, accel<=%.0f)",
		strings.ToUpper(c.Type.String()), c.Freq, 100-c.Reduction, c.Smoothing,
		math.Round(c.MaxAccel/100)*100)
}
