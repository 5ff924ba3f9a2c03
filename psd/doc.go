// Package psd estimates smoothed frequency responses from accelerometer
// recordings and locates mechanical resonance peaks in them.
//
// Resonance recordings are short and noisy, so a single transform is too
// unreliable to locate peaks. The estimator therefore uses Welch averaging:
// the mean-removed signal is split into 50% overlapping Hann-windowed
// segments, each segment is transformed, and the per-bin powers are averaged.
// The result is restricted to the configured frequency band of interest and
// exposed as an amplitude spectrum (square root of the PSD).
//
// Peak detection accepts local maxima that clear a noise floor defined as a
// multiple of the median band amplitude. For each accepted peak the damping
// ratio is estimated with the half-power bandwidth method:
//
//	ζ ≈ (f_hi − f_lo) / (2 · f_peak)
//
// where f_lo and f_hi are the frequencies at which the amplitude falls to
// peak/√2, found by linear interpolation between bins.
package psd
