// Command shapertune recommends input-shaper settings from resonance
// recordings.
//
// Usage:
//
//	shapertune [flags] log.csv [log.csv ...]
//
// Each argument is a raw accelerometer CSV log. The axis is inferred from
// the file name (resonances_x_*.csv style) unless -axis is given; a log
// without a name hint is processed for every axis it carries.
//
// Examples:
//
//	shapertune resonances_x_20260831.csv resonances_y_20260831.csv
//	shapertune -target 95 -band-max 150 log.csv
//	shapertune -plot out/ -pdf calibration.pdf log.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/calibrate"
	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/report"
	"github.com/cwbudde/algo-shaper/tune"
)

func main() {
	axis := flag.String("axis", "", "axis to calibrate (x, y or z); overrides file-name inference")
	bandMin := flag.Float64("band-min", psd.DefaultBandMin, "lower edge of the analysis band in Hz")
	bandMax := flag.Float64("band-max", psd.DefaultBandMax, "upper edge of the analysis band in Hz")
	step := flag.Float64("step", tune.DefaultStep, "candidate frequency step in Hz")
	span := flag.Float64("span", tune.DefaultSpan, "sweep half-width around the resonance in Hz")
	target := flag.Float64("target", tune.DefaultTarget, "vibration-reduction target in percent")
	plotDir := flag.String("plot", "", "directory for per-axis response plots (PNG)")
	pdfPath := flag.String("pdf", "", "write a calibration report PDF to this path")
	verbose := flag.Bool("v", false, "log pipeline progress to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shapertune [flags] log.csv [log.csv ...]\n\n")
		fmt.Fprintf(os.Stderr, "Recommends input-shaper settings from accelerometer resonance logs.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  shapertune resonances_x_20260831.csv\n")
		fmt.Fprintf(os.Stderr, "  shapertune -target 95 -plot out/ log.csv\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = l.Sync() }()
		logger = l
	}

	opts := []calibrate.Option{
		calibrate.WithPSDOptions(psd.Options{BandMin: *bandMin, BandMax: *bandMax}),
		calibrate.WithTuneConfig(tune.Config{Step: *step, Span: *span, Target: *target}),
		calibrate.WithLogger(logger),
		calibrate.WithCache(calibrate.NewCache(0)),
	}

	var reports []calibrate.AxisReport
	failures := 0
	for _, path := range flag.Args() {
		rep, err := runFile(ctx, path, *axis, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr, "interrupted")
				os.Exit(1)
			}
			color.Red("error: %s: %v", path, err)
			failures++
			continue
		}
		for ax, axErr := range rep.Failed {
			color.Yellow("warning: %s: axis %s skipped: %v", path, ax, axErr)
		}
		reports = append(reports, rep.Axes...)
	}

	if len(reports) == 0 {
		color.Red("error: no axis produced a recommendation")
		os.Exit(1)
	}

	printRecommendations(reports)

	if *plotDir != "" {
		if err := writePlots(*plotDir, reports); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failures++
		}
	}
	if *pdfPath != "" {
		if err := writeReportPDF(*pdfPath, reports); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failures++
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func runFile(ctx context.Context, path, axisFlag string, opts []calibrate.Option) (calibrate.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return calibrate.Report{}, err
	}

	var axes []string
	switch {
	case axisFlag != "":
		axes = []string{axisFlag}
	default:
		if ax := accel.InferAxis(path); ax != "" {
			axes = []string{ax}
		}
	}

	return calibrate.Run(ctx, data, axes, opts...)
}

func printRecommendations(reports []calibrate.AxisReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	for _, rep := range reports {
		_, _ = bold.Printf("Axis %s (resonance %.1f Hz, damping %.3f)\n",
			rep.Axis, rep.Peak.Freq, rep.Peak.Damping)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  Shaper\tFreq [Hz]\tReduction [%%]\tSmoothing [s]\tMax accel [mm/s²]\n")
		for _, c := range rep.Result.Candidates {
			marker := " "
			if c.Type == rep.Result.Best.Type {
				marker = "*"
			}
			fmt.Fprintf(tw, "  %s %s\t%.1f\t%.1f\t%.3f\t%.0f\n",
				marker, c.Type, c.Freq, c.Reduction, c.Smoothing, c.MaxAccel)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
			return
		}

		_, _ = green.Printf("  Recommended: %s\n", report.SummaryLine(rep.Result.Best))
		if rep.Result.BelowTarget {
			color.Yellow("  Reduction target missed; best available shaper shown.")
		}
		fmt.Println()
	}

	recs := make([]report.AxisRecommendation, 0, len(reports))
	for _, rep := range reports {
		recs = append(recs, report.AxisRecommendation{Axis: rep.Axis, Best: rep.Result.Best})
	}
	fmt.Println("Add to the printer configuration:")
	fmt.Println()
	fmt.Print(report.ConfigText(recs))
}

func writePlots(dir string, reports []calibrate.AxisReport) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for _, rep := range reports {
		series, err := report.BuildSeries(rep.Response, rep.Result.Best)
		if err != nil {
			return err
		}
		png, err := report.RenderPNG(series, report.SummaryLine(rep.Result.Best))
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("response_%s.png", rep.Axis))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func writeReportPDF(path string, reports []calibrate.AxisReport) error {
	pages := make([]report.PDFPage, 0, len(reports))
	for _, rep := range reports {
		page := report.PDFPage{Axis: rep.Axis, Result: rep.Result}
		if series, err := report.BuildSeries(rep.Response, rep.Result.Best); err == nil {
			if png, err := report.RenderPNG(series, report.SummaryLine(rep.Result.Best)); err == nil {
				page.Plot = png
			}
		}
		pages = append(pages, page)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WritePDF(f, "Input shaper calibration", pages); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
