// Package tune scores input-shaper candidates against a measured frequency
// response and selects the best shaper per axis.
//
// The evaluator multiplies the measured amplitude at each frequency by the
// candidate shaper's transfer magnitude, integrates the residual energy over
// the band, and normalizes against the pre-shaping energy. The optimizer
// sweeps candidate frequencies around the detected resonance for every
// family, keeps the best per family, and ranks the family bests by a
// smoothing-penalized rule: among candidates meeting the reduction target,
// the shortest smoothing time wins; when none meets the target, the highest
// reduction wins and the result is flagged as below target.
package tune
