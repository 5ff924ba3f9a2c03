package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderPNG draws the pre-/post-shaping amplitude curves of one axis as a
// PNG image.
func RenderPNG(s Series, summary string) ([]byte, error) {
	if len(s.Freq) == 0 {
		return nil, ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Axis %s: %s", s.Axis, summary)
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Amplitude"
	p.Add(plotter.NewGrid())

	pre, err := plotter.NewLine(toXYs(s.Freq, s.Pre))
	if err != nil {
		return nil, fmt.Errorf("report: pre-shaping line: %w", err)
	}
	pre.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(pre)
	p.Legend.Add("measured", pre)

	post, err := plotter.NewLine(toXYs(s.Freq, s.Post))
	if err != nil {
		return nil, fmt.Errorf("report: post-shaping line: %w", err)
	}
	post.Color = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	post.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(post)
	p.Legend.Add("after shaper", post)

	p.Legend.Top = true
	p.X.Min = s.Freq[0]
	p.X.Max = s.Freq[len(s.Freq)-1]

	wt, err := p.WriterTo(7*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func toXYs(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}
