package psd

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultNoiseFloor is the multiple of the median band amplitude a local
// maximum must exceed to count as a resonance. Empirical tuning constant.
const DefaultNoiseFloor = 2.0

// DefaultDamping is assumed when the half-power bandwidth cannot be
// resolved, e.g. when a peak sits at the band edge.
const DefaultDamping = 0.1

// Peak is a detected resonance.
type Peak struct {
	Freq      float64 // Hz, refined by parabolic interpolation
	Amplitude float64
	Damping   float64 // half-power bandwidth estimate, in [0, 1)
}

// DetectPeaks finds resonance peaks in the response, strongest first.
//
// A bin qualifies when it is a local maximum and its amplitude exceeds
// noiseFloor times the median band amplitude (noiseFloor <= 0 selects
// DefaultNoiseFloor). When no bin qualifies, ErrNoResonance is returned;
// the caller must surface this, never substitute a default frequency.
func DetectPeaks(resp Response, noiseFloor float64) ([]Peak, error) {
	if len(resp.Freq) < 3 {
		return nil, fmt.Errorf("%w: %d bins", ErrInvalidInput, len(resp.Freq))
	}
	if noiseFloor <= 0 {
		noiseFloor = DefaultNoiseFloor
	}

	sorted := append([]float64(nil), resp.Amplitude...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	threshold := noiseFloor * median

	var peaks []Peak
	amp := resp.Amplitude
	for i := 1; i < len(amp)-1; i++ {
		if amp[i] <= threshold {
			continue
		}
		if amp[i] < amp[i-1] || amp[i] <= amp[i+1] {
			continue
		}
		freq, height := refinePeak(resp, i)
		peaks = append(peaks, Peak{
			Freq:      freq,
			Amplitude: height,
			Damping:   estimateDamping(resp, i, freq),
		})
	}
	if len(peaks) == 0 {
		return nil, fmt.Errorf("%w: threshold %g", ErrNoResonance, threshold)
	}

	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Amplitude > peaks[j].Amplitude })
	return peaks, nil
}

// DominantPeak returns the strongest resonance in the response.
func DominantPeak(resp Response, noiseFloor float64) (Peak, error) {
	peaks, err := DetectPeaks(resp, noiseFloor)
	if err != nil {
		return Peak{}, err
	}
	return peaks[0], nil
}

// refinePeak fits a parabola through the peak bin and its neighbours to
// recover a sub-bin frequency and height.
func refinePeak(resp Response, i int) (freq, height float64) {
	y1, y2, y3 := resp.Amplitude[i-1], resp.Amplitude[i], resp.Amplitude[i+1]
	denom := y1 - 2*y2 + y3
	if denom >= 0 {
		// Not locally concave; keep the bin itself.
		return resp.Freq[i], y2
	}
	delta := 0.5 * (y1 - y3) / denom
	if delta < -0.5 {
		delta = -0.5
	} else if delta > 0.5 {
		delta = 0.5
	}
	binWidth := resp.Freq[i] - resp.Freq[i-1]
	return resp.Freq[i] + delta*binWidth, y2 - 0.25*(y1-y3)*delta
}

// estimateDamping applies the half-power bandwidth method around bin i:
// the -3 dB points (amplitude peak/sqrt2) are located on both sides by
// linear interpolation, and
//
//	ζ = (f_hi - f_lo) / (2 · f_peak)
//
// If either crossing lies outside the band the bandwidth is indeterminate
// and DefaultDamping is reported instead.
func estimateDamping(resp Response, i int, peakFreq float64) float64 {
	amp := resp.Amplitude
	threshold := amp[i] / math.Sqrt2

	lower := math.NaN()
	for j := i; j >= 1; j-- {
		if amp[j-1] <= threshold && amp[j] > threshold {
			lower = crossing(resp.Freq[j-1], resp.Freq[j], amp[j-1], amp[j], threshold)
			break
		}
	}

	upper := math.NaN()
	for j := i; j < len(amp)-1; j++ {
		if amp[j+1] <= threshold && amp[j] > threshold {
			upper = crossing(resp.Freq[j], resp.Freq[j+1], amp[j], amp[j+1], threshold)
			break
		}
	}

	if math.IsNaN(lower) || math.IsNaN(upper) || upper <= lower || peakFreq <= 0 {
		return DefaultDamping
	}
	damping := (upper - lower) / (2 * peakFreq)
	if damping >= 1 {
		return DefaultDamping
	}
	return damping
}

// crossing linearly interpolates the frequency at which the amplitude
// crosses the threshold between two bins.
func crossing(fLow, fHigh, aLow, aHigh, threshold float64) float64 {
	denom := aHigh - aLow
	if denom == 0 {
		return (fLow + fHigh) / 2
	}
	t := (threshold - aLow) / denom
	return fLow + t*(fHigh-fLow)
}
