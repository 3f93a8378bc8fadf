package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

type historyCmd struct {
	table       string
	action      string
	limit       int
	participant int64
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list the most recent changes to the ledger" }
func (*historyCmd) Usage() string {
	return `cotis-admin history [-table participants|cotisations] [-action CREATE|UPDATE|DELETE] [-limit n] [-participant id]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.table, "table", "", "Only show changes to this table")
	f.StringVar(&c.action, "action", "", "Only show this kind of change")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of entries")
	f.Int64Var(&c.participant, "participant", 0, "Only show changes about this participant and its dues")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	var entries []*models.HistoryEntry
	if c.participant != 0 {
		entries, err = a.Services.History.ForParticipant(ctx, c.participant, c.limit)
	} else {
		entries, err = a.Services.History.List(ctx, storage.HistoryFilter{
			Table:  models.Table(c.table),
			Action: models.Action(c.action),
			Limit:  c.limit,
		})
	}
	if err != nil {
		return fail(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tUTILISATEUR\tACTION\tTABLE\tID\tDÉTAIL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.OccurredAt.Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.Table, e.RecordID, e.Detail)
	}
	if err := tw.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
