package calibrate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/report"
	"github.com/cwbudde/algo-shaper/tune"
)

// ErrNoUsableAxis indicates that no axis of the log survived the pipeline.
var ErrNoUsableAxis = errors.New("calibrate: no usable axis")

// AxisReport is the pipeline outcome for a single axis.
type AxisReport struct {
	Axis     string
	Response psd.Response
	Peak     psd.Peak
	Result   tune.Result
}

// Report is the outcome of one calibration run.
type Report struct {
	Axes   []AxisReport     // successful axes, alphabetical
	Failed map[string]error // per-axis failures, empty when all axes succeeded
}

// Recommendations returns the winning candidate per successful axis, in a
// form the report package renders directly.
func (r Report) Recommendations() []report.AxisRecommendation {
	recs := make([]report.AxisRecommendation, 0, len(r.Axes))
	for _, a := range r.Axes {
		recs = append(recs, report.AxisRecommendation{Axis: a.Axis, Best: a.Result.Best})
	}
	return recs
}

// Run executes the calibration pipeline on a raw accelerometer log.
//
// When axes are given, only those are processed; otherwise every axis the
// log carries. Axes run concurrently and fail independently; a failure is
// recorded in Report.Failed and does not disturb the others. Run returns
// an error only when the log cannot be parsed at all or when no axis
// yields a recommendation.
func Run(ctx context.Context, data []byte, axes []string, opts ...Option) (Report, error) {
	cfg := ApplyOptions(opts...)

	logs, err := accel.ParseCSV(data, cfg.Accel, axes...)
	failed := make(map[string]error)
	if err != nil {
		if len(logs) == 0 && !hasAxisErrors(err) {
			return Report{}, err
		}
		recordAxisErrors(failed, err)
	}

	reports := make([]AxisReport, len(logs))
	errs := make([]error, len(logs))

	var wg sync.WaitGroup
	for i, log := range logs {
		wg.Add(1)
		go func(i int, log accel.AxisLog) {
			defer wg.Done()
			reports[i], errs[i] = runAxis(ctx, cfg, log)
		}(i, log)
	}
	wg.Wait()

	rep := Report{Failed: failed}
	for i, log := range logs {
		if errs[i] != nil {
			if ctx.Err() != nil {
				return Report{}, ctx.Err()
			}
			cfg.Logger.Warn("axis failed",
				zap.String("axis", log.Axis),
				zap.Error(errs[i]))
			failed[log.Axis] = errs[i]
			continue
		}
		rep.Axes = append(rep.Axes, reports[i])
	}

	if len(rep.Axes) == 0 {
		return rep, fmt.Errorf("%w: %w", ErrNoUsableAxis, errors.Join(axisErrValues(failed)...))
	}
	return rep, nil
}

// runAxis runs estimation, peak detection and the optimizer sweep for one
// axis.
func runAxis(ctx context.Context, cfg Config, log accel.AxisLog) (AxisReport, error) {
	resp, err := estimate(cfg, log)
	if err != nil {
		return AxisReport{}, err
	}

	peak, err := psd.DominantPeak(resp, cfg.NoiseFloor)
	if err != nil {
		return AxisReport{}, err
	}
	cfg.Logger.Info("resonance located",
		zap.String("axis", log.Axis),
		zap.Float64("freq_hz", peak.Freq),
		zap.Float64("damping", peak.Damping))

	result, err := tune.Optimize(ctx, resp, peak, cfg.Tune)
	if err != nil {
		return AxisReport{}, err
	}
	cfg.Logger.Info("shaper selected",
		zap.String("axis", log.Axis),
		zap.Stringer("type", result.Best.Type),
		zap.Float64("freq_hz", result.Best.Freq),
		zap.Float64("reduction_pct", result.Best.Reduction),
		zap.Bool("below_target", result.BelowTarget))

	return AxisReport{
		Axis:     log.Axis,
		Response: resp,
		Peak:     peak,
		Result:   result,
	}, nil
}

// estimate computes the frequency response, consulting the cache when one
// is attached.
func estimate(cfg Config, log accel.AxisLog) (psd.Response, error) {
	if cfg.Cache == nil {
		return psd.Estimate(log, cfg.PSD)
	}

	key := fingerprint(log, cfg.PSD)
	if resp, ok := cfg.Cache.get(key); ok {
		cfg.Logger.Debug("response cache hit", zap.String("axis", log.Axis))
		return resp, nil
	}

	resp, err := psd.Estimate(log, cfg.PSD)
	if err != nil {
		return psd.Response{}, err
	}
	cfg.Cache.put(key, resp)
	return resp, nil
}

func hasAxisErrors(err error) bool {
	var axisErr *accel.AxisError
	return errors.As(err, &axisErr)
}

// recordAxisErrors splits a joined ingestion error into per-axis entries.
func recordAxisErrors(failed map[string]error, err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, sub := range joined.Unwrap() {
			recordAxisErrors(failed, sub)
		}
		return
	}
	var axisErr *accel.AxisError
	if errors.As(err, &axisErr) {
		failed[axisErr.Axis] = axisErr.Err
	}
}

func axisErrValues(failed map[string]error) []error {
	errs := make([]error, 0, len(failed))
	for axis, err := range failed {
		errs = append(errs, fmt.Errorf("axis %s: %w", axis, err))
	}
	return errs
}
