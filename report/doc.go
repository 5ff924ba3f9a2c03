// Package report renders calibration results for consumers outside the
// engine: declarative configuration text for the printer, plot-ready
// amplitude series, and optional PNG/PDF artifacts.
//
// The package performs no signal processing; it formats what the optimizer
// produced. Configuration text is round-trippable: ParseConfigText recovers
// the shaper type and frequency that ConfigText wrote, within the 0.1 Hz
// formatting precision.
package report
