// Package calibrate runs the full per-axis calibration pipeline: parse the
// accelerometer log, estimate the frequency response, locate the dominant
// resonance, sweep shaper candidates, and emit a recommendation.
//
// Axes are processed concurrently and fail independently: a log that carries
// a usable X axis and a noise-only Y axis still yields an X recommendation,
// with the Y failure reported alongside. Only a log that cannot be parsed at
// all fails the run as a whole.
//
// Spectral estimation is the expensive step, so a run can be given a Cache
// that memoizes responses keyed by a fingerprint of the raw samples and the
// estimation options. Repeated runs over the same recording, as a caller
// re-ranking with different targets does, then skip the FFT work.
package calibrate
