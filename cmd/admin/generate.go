package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/models"
)

type generateCmd struct {
	month int
	year  int
}

func (*generateCmd) Name() string     { return "generate" }
func (*generateCmd) Synopsis() string { return "create the unpaid dues of a month for every parcel" }
func (*generateCmd) Usage() string {
	return `cotis-admin generate [-month M] [-year Y]

  Creates one unpaid due at the default amount for every parcel of every
  participant that has none for the month yet. Running it again for the same
  month creates nothing. Defaults to the current month.
`
}

func (c *generateCmd) SetFlags(f *flag.FlagSet) {
	now := time.Now()
	f.IntVar(&c.month, "month", int(now.Month()), "Month to generate (1-12)")
	f.IntVar(&c.year, "year", now.Year(), "Year to generate")
}

func (c *generateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period := models.Period{Month: c.month, Year: c.year}
	if err := period.Validate(); err != nil {
		fmt.Println(err)
		return subcommands.ExitUsageError
	}

	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	result, err := a.Services.Dues.GenerateMonth(ctx, period)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s: %d cotisation(s) créée(s), %d existante(s)\n", period.Label(), result.Created, result.Existing)
	return subcommands.ExitSuccess
}
