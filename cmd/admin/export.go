package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/importer"
	"github.com/mmynk/cotisations/internal/service"
)

type exportCmd struct {
	year     int
	paidOnly bool
	output   string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the dues as a participant × month CSV" }
func (*exportCmd) Usage() string {
	return `cotis-admin export [-year Y] [-paid-only] [-o file.csv]

  Writes one row per participant and one column per month, in the layout
  accepted by import.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Only export this year (0 for all years)")
	f.BoolVar(&c.paidOnly, "paid-only", false, "Only count paid dues")
	f.StringVar(&c.output, "o", "", "Output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	opts := service.ExportOptions{PaidOnly: c.paidOnly}
	if c.year != 0 {
		opts.Year = &c.year
	}
	pivot, err := a.Services.Reports.Export(ctx, opts)
	if err != nil {
		return fail(err)
	}

	var w io.Writer = os.Stdout
	if c.output != "" {
		out, err := os.Create(c.output)
		if err != nil {
			return fail(err)
		}
		defer out.Close()
		w = out
	}
	if err := importer.WritePivot(w, pivot); err != nil {
		return fail(err)
	}
	if c.output != "" {
		fmt.Fprintf(os.Stderr, "%d participant(s) exported to %s\n", len(pivot.Rows), c.output)
	}
	return subcommands.ExitSuccess
}
