// Package shaper provides closed-form models of input-shaper filter families.
//
// An input shaper is a short train of time-offset, weighted impulses that is
// convolved with a motion command to cancel resonant vibration of the machine.
// For a given family, resonance frequency, and damping ratio the package
// returns the impulse train together with the derived quantities the
// calibration engine trades off against each other:
//
//   - the transfer magnitude |H(f)|, i.e. how much residual excitation the
//     shaper lets through at frequency f
//   - the smoothing time, the span over which the shaper spreads a move
//   - the maximum usable commanded acceleration for that smoothing
//
// The five supported families form a closed set. Two-impulse ZV guarantees
// roughly 90% worst-case vibration reduction, the multi-hump EI variants
// guarantee better than 99% at the cost of longer smoothing. The package is
// stateless; every function is a pure function of its arguments.
package shaper
