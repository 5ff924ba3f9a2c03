package psd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-shaper/accel"
)

// Errors returned by spectral estimation.
var (
	ErrInvalidBand  = errors.New("psd: invalid frequency band")
	ErrShortSignal  = errors.New("psd: signal too short for spectral estimation")
	ErrNoResonance  = errors.New("psd: no resonance peak above noise floor")
	ErrInvalidInput = errors.New("psd: invalid input")
)

// Default frequency band of interest for printer resonances, in Hz.
const (
	DefaultBandMin = 5.0
	DefaultBandMax = 200.0
)

// Segment size clamps for the averaged periodogram.
const (
	minSegmentSize = 256
	maxSegmentSize = 4096
)

// Options configures spectral estimation. The zero value selects the
// defaults.
type Options struct {
	BandMin     float64 // Hz, default DefaultBandMin
	BandMax     float64 // Hz, default DefaultBandMax
	SegmentSize int     // power of two; 0 derives it from the signal length
}

func (o Options) finalized(n int) (Options, error) {
	if o.BandMin <= 0 {
		o.BandMin = DefaultBandMin
	}
	if o.BandMax <= 0 {
		o.BandMax = DefaultBandMax
	}
	if o.BandMin >= o.BandMax {
		return o, fmt.Errorf("%w: [%g, %g]", ErrInvalidBand, o.BandMin, o.BandMax)
	}
	if o.SegmentSize == 0 {
		o.SegmentSize = autoSegmentSize(n)
	}
	if o.SegmentSize < 2 || o.SegmentSize&(o.SegmentSize-1) != 0 {
		return o, fmt.Errorf("%w: segment size %d is not a power of two", ErrInvalidInput, o.SegmentSize)
	}
	if o.SegmentSize > n {
		o.SegmentSize = prevPowerOf2(n)
	}
	return o, nil
}

// autoSegmentSize picks the largest power of two not above half the signal,
// clamped so short logs still average at least a few segments and long logs
// keep useful frequency resolution.
func autoSegmentSize(n int) int {
	seg := prevPowerOf2(n / 2)
	if seg < minSegmentSize {
		seg = minSegmentSize
	}
	if seg > maxSegmentSize {
		seg = maxSegmentSize
	}
	return seg
}

func prevPowerOf2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// Response is a band-restricted one-sided amplitude spectrum of one axis.
// Freq is strictly increasing; Amplitude is non-negative (sqrt of the PSD).
type Response struct {
	Axis      string
	Freq      []float64
	Amplitude []float64
}

// Estimate computes the Welch-averaged amplitude spectrum of the log,
// restricted to the configured band.
func Estimate(log accel.AxisLog, opts Options) (Response, error) {
	n := len(log.Accel)
	if n < 2 {
		return Response{}, fmt.Errorf("%w: %d samples", ErrShortSignal, n)
	}
	if log.SampleRate <= 0 {
		return Response{}, fmt.Errorf("%w: sample rate %g", ErrInvalidInput, log.SampleRate)
	}
	o, err := opts.finalized(n)
	if err != nil {
		return Response{}, err
	}
	if o.BandMax > log.SampleRate/2 {
		o.BandMax = log.SampleRate / 2
	}
	if o.BandMin >= o.BandMax {
		return Response{}, fmt.Errorf("%w: band [%g, %g] above Nyquist %g",
			ErrInvalidBand, o.BandMin, o.BandMax, log.SampleRate/2)
	}

	psd, err := welch(log.Accel, log.SampleRate, o.SegmentSize)
	if err != nil {
		return Response{}, err
	}

	binWidth := log.SampleRate / float64(o.SegmentSize)
	freq := make([]float64, 0, len(psd))
	amp := make([]float64, 0, len(psd))
	for k, p := range psd {
		f := float64(k) * binWidth
		if f < o.BandMin || f > o.BandMax {
			continue
		}
		freq = append(freq, f)
		amp = append(amp, math.Sqrt(p))
	}
	if len(freq) < 3 {
		return Response{}, fmt.Errorf("%w: only %d bins inside [%g, %g]",
			ErrInvalidBand, len(freq), o.BandMin, o.BandMax)
	}

	return Response{Axis: log.Axis, Freq: freq, Amplitude: amp}, nil
}

// welch returns the one-sided PSD over bins 0..nfft/2 using Hann-windowed
// segments with 50% overlap.
func welch(signal []float64, sampleRate float64, nfft int) ([]float64, error) {
	n := len(signal)
	if nfft > n {
		return nil, fmt.Errorf("%w: %d samples for segment size %d", ErrShortSignal, n, nfft)
	}

	// Global mean removal kills the DC component before windowing.
	mean := 0.0
	for _, v := range signal {
		mean += v
	}
	mean /= float64(n)

	win := hann(nfft)
	winPower := 0.0
	for _, w := range win {
		winPower += w * w
	}

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, fmt.Errorf("psd: fft plan: %w", err)
	}

	hop := nfft / 2
	bins := nfft/2 + 1

	acc := make([]float64, bins)
	input := make([]complex128, nfft)
	output := make([]complex128, nfft)
	re := make([]float64, bins)
	im := make([]float64, bins)
	power := make([]float64, bins)

	segments := 0
	for start := 0; start+nfft <= n; start += hop {
		for i := 0; i < nfft; i++ {
			input[i] = complex((signal[start+i]-mean)*win[i], 0)
		}
		if err := plan.Forward(output, input); err != nil {
			return nil, fmt.Errorf("psd: forward fft: %w", err)
		}
		for k := 0; k < bins; k++ {
			re[k] = real(output[k])
			im[k] = imag(output[k])
		}
		vecmath.Power(power, re, im)
		for k := 0; k < bins; k++ {
			acc[k] += power[k]
		}
		segments++
	}
	if segments == 0 {
		return nil, fmt.Errorf("%w: no full segment of %d samples", ErrShortSignal, nfft)
	}

	// One-sided Welch scaling; DC and Nyquist bins carry no mirror energy.
	scale := 1 / (float64(segments) * sampleRate * winPower)
	for k := range acc {
		acc[k] *= scale
		if k != 0 && k != bins-1 {
			acc[k] *= 2
		}
	}
	return acc, nil
}

// hann returns the periodic Hann window of length n.
func hann(n int) []float64 {
	win := make([]float64, n)
	for i := range win {
		win[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return win
}
