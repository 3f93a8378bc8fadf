package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/importer"
	"github.com/mmynk/cotisations/internal/service"
)

type importCmd struct {
	paid        bool
	create      bool
	sep         string
	windows1252 bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import dues from a spreadsheet CSV" }
func (*importCmd) Usage() string {
	return `cotis-admin import [-paid] [-create=true] [-sep ,] [-cp1252] <file.csv>

  Reads a CSV with the columns nom, prenom, optionally nombre_terrains, and
  one column per month named YYYY-MM. Each non-empty cell becomes a due.
  Rejected cells are listed and do not stop the import.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.paid, "paid", false, "Record every imported due as paid today")
	f.BoolVar(&c.create, "create", true, "Create participants missing from the ledger")
	f.StringVar(&c.sep, "sep", ",", "Field separator")
	f.BoolVar(&c.windows1252, "cp1252", false, "The file is Windows-1252 encoded (Excel export)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Println("import requires exactly one file argument")
		return subcommands.ExitUsageError
	}
	sep := []rune(c.sep)
	if len(sep) != 1 {
		fmt.Println("-sep must be a single character")
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	rows, err := importer.ReadRows(file, importer.Options{Delimiter: sep[0], Windows1252: c.windows1252})
	if err != nil {
		return fail(err)
	}

	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	result, err := a.Services.Import.Import(ctx, rows, service.ImportOptions{
		CreateMissing: c.create,
		MarkPaid:      c.paid,
	})
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%d cotisation(s) importée(s), %d participant(s) créé(s)\n", result.Imported, result.ParticipantsCreated)
	for _, e := range result.Errors {
		fmt.Println("  " + e.Error())
	}
	if len(result.Errors) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
