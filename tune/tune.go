package tune

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/shaper"
)

// Errors returned by evaluation and optimization.
var (
	ErrEmptyResponse = errors.New("tune: empty frequency response")
	ErrInvalidSweep  = errors.New("tune: invalid sweep parameters")
)

// Defaults for the optimizer sweep.
const (
	DefaultStep   = 0.5  // Hz between candidate frequencies
	DefaultSpan   = 15.0 // Hz swept on either side of the detected resonance
	DefaultTarget = 90.0 // reduction target, percent
)

// Config parameterizes one optimizer run. It is passed explicitly per call;
// the optimizer holds no session state. The zero value selects the defaults.
type Config struct {
	Step   float64 // sweep resolution in Hz
	Span   float64 // sweep half-width around the resonance in Hz
	Target float64 // vibration-reduction target in percent
}

func (c Config) finalized() (Config, error) {
	if c.Step == 0 {
		c.Step = DefaultStep
	}
	if c.Span == 0 {
		c.Span = DefaultSpan
	}
	if c.Target == 0 {
		c.Target = DefaultTarget
	}
	if c.Step < 0 || c.Span <= 0 || c.Target < 0 || c.Target > 100 {
		return c, fmt.Errorf("%w: step=%g span=%g target=%g", ErrInvalidSweep, c.Step, c.Span, c.Target)
	}
	return c, nil
}

// Candidate is one evaluated (type, frequency, damping) combination.
type Candidate struct {
	Type      shaper.Type
	Freq      float64 // Hz
	Damping   float64 // damping ratio the train was built with
	Reduction float64 // vibration reduction, percent of pre-shaping energy
	Smoothing float64 // seconds
	MaxAccel  float64 // mm/s²
	Score     float64 // smoothing-penalized residual, lower is better
}

// Result is the outcome of one optimizer run for one axis.
type Result struct {
	Best        Candidate
	Candidates  []Candidate // best per family, declaration order
	BelowTarget bool        // Best missed the configured target
}

// Evaluate scores a single candidate against the measured response.
//
// The residual energy is Σ A(f)²·|H(f)|² over the response band, and
//
//	Reduction = 100 · (1 − residual/total)
//
// Identical inputs always produce identical output; the function reads the
// response and never mutates it.
func Evaluate(resp psd.Response, typ shaper.Type, freq, damping float64) (Candidate, error) {
	if len(resp.Freq) == 0 {
		return Candidate{}, ErrEmptyResponse
	}

	meta, err := shaper.Meta(typ)
	if err != nil {
		return Candidate{}, err
	}
	// The closed forms are only valid up to a family-specific damping; an
	// overdamped measurement is evaluated at the family limit.
	if damping > meta.MaxDamping {
		damping = meta.MaxDamping
	}

	train, err := shaper.Impulses(typ, freq, damping)
	if err != nil {
		return Candidate{}, err
	}

	var residual, total float64
	for i, f := range resp.Freq {
		a2 := resp.Amplitude[i] * resp.Amplitude[i]
		h := train.Transfer(f)
		residual += a2 * h * h
		total += a2
	}
	if total == 0 {
		return Candidate{}, fmt.Errorf("%w: zero energy", ErrEmptyResponse)
	}

	ratio := residual / total
	smoothing := train.SmoothingTime()
	return Candidate{
		Type:      typ,
		Freq:      freq,
		Damping:   damping,
		Reduction: 100 * (1 - ratio),
		Smoothing: smoothing,
		MaxAccel:  shaper.MaxAccel(smoothing),
		Score:     math.Sqrt(ratio) * math.Pow(smoothing+0.1, 0.65),
	}, nil
}

// Optimize sweeps candidate frequencies around the detected resonance for
// every shaper family and ranks the per-family bests.
//
// The sweep covers [peak.Freq−Span, peak.Freq+Span] clipped to the response
// band, at Step resolution. Candidates are evaluated at the peak's estimated
// damping ratio. Cancellation is checked once per sweep step, so latency is
// bounded by a single evaluation.
func Optimize(ctx context.Context, resp psd.Response, peak psd.Peak, cfg Config) (Result, error) {
	if len(resp.Freq) == 0 {
		return Result{}, ErrEmptyResponse
	}
	c, err := cfg.finalized()
	if err != nil {
		return Result{}, err
	}

	lo := math.Max(peak.Freq-c.Span, resp.Freq[0])
	hi := math.Min(peak.Freq+c.Span, resp.Freq[len(resp.Freq)-1])
	if lo <= 0 || lo > hi {
		return Result{}, fmt.Errorf("%w: sweep range [%g, %g]", ErrInvalidSweep, lo, hi)
	}

	candidates := make([]Candidate, 0, len(shaper.Types))
	for _, typ := range shaper.Types {
		best, err := sweepType(ctx, resp, typ, peak.Damping, lo, hi, c.Step)
		if err != nil {
			return Result{}, err
		}
		candidates = append(candidates, best)
	}

	best, belowTarget := rank(candidates, c.Target)
	return Result{Best: best, Candidates: candidates, BelowTarget: belowTarget}, nil
}

// sweepType finds the frequency in [lo, hi] maximizing the reduction for one
// family.
func sweepType(ctx context.Context, resp psd.Response, typ shaper.Type, damping, lo, hi, step float64) (Candidate, error) {
	var best Candidate
	found := false
	for f := lo; f <= hi+step/2; f += step {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		cand, err := Evaluate(resp, typ, math.Min(f, hi), damping)
		if err != nil {
			return Candidate{}, err
		}
		if !found || cand.Reduction > best.Reduction {
			best = cand
			found = true
		}
	}
	if !found {
		return Candidate{}, fmt.Errorf("%w: empty sweep [%g, %g]", ErrInvalidSweep, lo, hi)
	}
	return best, nil
}

// rank selects the winner among the per-family bests. Candidates meeting the
// target compete on smoothing time; if none qualifies, the globally highest
// reduction wins and the result is flagged. Ties fall back to lower
// smoothing, then family declaration order.
func rank(candidates []Candidate, target float64) (best Candidate, belowTarget bool) {
	qualifying := false
	for _, cand := range candidates {
		if cand.Reduction < target {
			continue
		}
		if !qualifying || cand.Smoothing < best.Smoothing {
			best = cand
			qualifying = true
		}
	}
	if qualifying {
		return best, false
	}

	best = candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Reduction > best.Reduction ||
			(cand.Reduction == best.Reduction && cand.Smoothing < best.Smoothing) {
			best = cand
		}
	}
	return best, true
}
