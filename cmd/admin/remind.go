package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type remindCmd struct {
	participant int64
}

func (*remindCmd) Name() string     { return "remind" }
func (*remindCmd) Synopsis() string { return "list who owes dues, or print one WhatsApp reminder" }
func (*remindCmd) Usage() string {
	return `cotis-admin remind [-participant id]

  Without -participant, lists participants with a phone number and unpaid
  dues, largest amount first. With it, prints the reminder message and its
  wa.me link.
`
}

func (c *remindCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.participant, "participant", 0, "Participant to build the reminder for")
}

func (c *remindCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if c.participant == 0 {
		candidates, err := a.Services.Reminders.Candidates(ctx)
		if err != nil {
			return fail(err)
		}
		for _, cand := range candidates {
			fmt.Printf("%5d  %-30s  %2d cotisation(s)  %s FCFA\n",
				cand.Participant.ID, cand.Participant.FullName(), cand.UnpaidCount, cand.UnpaidTotal.StringFixed(0))
		}
		return subcommands.ExitSuccess
	}

	reminder, err := a.Services.Reminders.Build(ctx, c.participant)
	if err != nil {
		return fail(err)
	}
	fmt.Println(reminder.Message)
	if reminder.Link != "" {
		fmt.Println()
		fmt.Println(reminder.Link)
	}
	return subcommands.ExitSuccess
}
