// Package testutil provides deterministic signal builders for tests.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DampedBursts simulates an accelerometer recording of a structure with a
// single resonance: a decaying sinusoid
//
//	y(t) = exp(-ζ·ω0·t) · sin(ωd·t),  ωd = ω0·√(1-ζ²)
//
// re-excited every burstEvery samples, plus a small seeded noise floor.
func DampedBursts(freqHz, damping, sampleRate float64, length, burstEvery int, seed int64) []float64 {
	w0 := 2 * math.Pi * freqHz
	wd := w0 * math.Sqrt(1-damping*damping)

	out := DeterministicNoise(seed, 0.01, length)
	for i := range out {
		t := float64(i%burstEvery) / sampleRate
		out[i] += math.Exp(-damping*w0*t) * math.Sin(wd*t)
	}
	return out
}

// ResonantSignal synthesizes a stationary signal whose amplitude spectrum
// follows a single-degree-of-freedom resonance
//
//	|H(f)| = 1 / √((1-(f/f0)²)² + (2ζ·f/f0)²)
//
// by summing cosines on the given frequency grid with seeded random phases.
// Useful when a test needs an analytically known spectral shape.
func ResonantSignal(freqHz, damping, sampleRate, gridHz float64, length int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for f := gridHz; f < sampleRate/2; f += gridHz {
		x := f / freqHz
		d := (1-x*x)*(1-x*x) + (2*damping*x)*(2*damping*x)
		amp := 1 / math.Sqrt(d)
		phase := rng.Float64() * 2 * math.Pi
		step := 2 * math.Pi * f / sampleRate
		for i := range out {
			out[i] += amp * math.Cos(step*float64(i)+phase)
		}
	}
	return out
}

// CSVLog renders samples of one axis as an accelerometer CSV log at a
// uniform rate.
func CSVLog(axis string, sampleRate float64, samples []float64) []byte {
	return CSVLogMulti(sampleRate, []string{axis}, [][]float64{samples})
}

// CSVLogMulti renders several axis series sharing one uniform time base.
// All series must have the same length.
func CSVLogMulti(sampleRate float64, axes []string, series [][]float64) []byte {
	var b strings.Builder
	b.WriteString("#time")
	for _, axis := range axes {
		fmt.Fprintf(&b, ",accel_%s", axis)
	}
	b.WriteString("\n")
	for i := range series[0] {
		fmt.Fprintf(&b, "%.7f", float64(i)/sampleRate)
		for _, s := range series {
			fmt.Fprintf(&b, ",%.6f", s[i])
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
