package report

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/shaper"
	"github.com/cwbudde/algo-shaper/tune"
)

// ErrEmptySeries indicates a response with no bins to plot.
var ErrEmptySeries = errors.New("report: empty response")

// Series holds paired pre-/post-shaping amplitudes for external plotting.
// All three slices share the same length and index.
type Series struct {
	Axis string
	Freq []float64
	Pre  []float64
	Post []float64
}

// BuildSeries derives the post-shaping amplitude series by applying the
// candidate's transfer magnitude to the measured response.
func BuildSeries(resp psd.Response, cand tune.Candidate) (Series, error) {
	if len(resp.Freq) == 0 {
		return Series{}, ErrEmptySeries
	}
	train, err := shaper.Impulses(cand.Type, cand.Freq, cand.Damping)
	if err != nil {
		return Series{}, fmt.Errorf("report: %w", err)
	}

	s := Series{
		Axis: resp.Axis,
		Freq: append([]float64(nil), resp.Freq...),
		Pre:  append([]float64(nil), resp.Amplitude...),
		Post: make([]float64, len(resp.Freq)),
	}
	for i, f := range resp.Freq {
		s.Post[i] = resp.Amplitude[i] * train.Transfer(f)
	}
	return s, nil
}
