// Command dyncurve prints the static transfer curve of a dynamics processor.
//
// Usage:
//
//	dyncurve [flags]
//
// Examples:
//
//	dyncurve -type compressor -threshold -18 -ratio 4 -knee 6
//	dyncurve -type gate -threshold -50 -min -80 -max 0 -points 17
//	dyncurve -list
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-dynamics/dsp/core"
	"github.com/cwbudde/algo-dynamics/dsp/effects/dynamics"
	"gonum.org/v1/gonum/floats"
)

const slopeStepDB = 0.01

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dyncurve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	typeName := fs.String("type", "compressor", "processor type: compressor, limiter, expander or gate")
	threshold := fs.Float64("threshold", -20, "threshold in dB")
	ratio := fs.Float64("ratio", 4, "ratio (compressor, expander)")
	knee := fs.Float64("knee", 6, "knee width in dB")
	minDB := fs.Float64("min", -60, "lowest input level in dB")
	maxDB := fs.Float64("max", 0, "highest input level in dB")
	points := fs.Int("points", 25, "number of input levels")
	list := fs.Bool("list", false, "list processor types")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: dyncurve [flags]\n\n")
		fmt.Fprintf(stderr, "Prints the static input/output curve of a dynamics processor.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, t := range []dynamics.Type{dynamics.TypeCompressor, dynamics.TypeLimiter, dynamics.TypeExpander, dynamics.TypeGate} {
			fmt.Fprintln(stdout, t)
		}
		return 0
	}

	typ, err := dynamics.ParseType(*typeName)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	curve := dynamics.Curve{Type: typ, ThresholdDB: *threshold, Ratio: *ratio, KneeDB: *knee}
	if err := curve.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *points < 2 || !(*maxDB > *minDB) {
		fmt.Fprintf(stderr, "error: need at least 2 points and -max above -min\n")
		return 1
	}

	levels := floats.Span(make([]float64, *points), *minDB, *maxDB)
	if err := printCurve(stdout, curve, levels); err != nil {
		fmt.Fprintf(stderr, "error: failed to write output: %v\n", err)
		return 1
	}

	return 0
}

func printCurve(w io.Writer, curve dynamics.Curve, levels []float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "# %s threshold=%.2f dB ratio=%.2f knee=%.2f dB\n",
		curve.Type, curve.ThresholdDB, curve.Ratio, curve.KneeDB); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "In [dB]\tOut [dB]\tGain [dB]\tSlope\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "-------\t--------\t---------\t-----\n"); err != nil {
		return err
	}

	for _, in := range levels {
		out := curve.Apply(in)
		gainDB := core.GainToDecibels(curve.Gain(in))

		if _, err := fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%.3f\n",
			in, out, gainDB, curve.Slope(in, slopeStepDB)); err != nil {
			return err
		}
	}

	return tw.Flush()
}
