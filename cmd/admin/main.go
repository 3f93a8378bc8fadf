// Command cotis-admin runs ledger maintenance tasks against the database
// configured for the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/app"
	"github.com/mmynk/cotisations/internal/config"
	"github.com/mmynk/cotisations/internal/middleware"
	"github.com/mmynk/cotisations/pkg/logging"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var actor = flag.String("actor", middleware.DefaultActor, "Username recorded in the history for changes made by this command")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&generateCmd{}, "dues")
	commander.Register(&importCmd{}, "dues")
	commander.Register(&exportCmd{}, "reports")
	commander.Register(&remindCmd{}, "reports")
	commander.Register(&historyCmd{}, "reports")
	commander.Register(&backupCmd{}, "maintenance")
	commander.Register(&passwdCmd{}, "maintenance")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openApp loads the configuration and opens the ledger.
// The returned context carries the -actor username.
func openApp(ctx context.Context) (context.Context, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, nil, err
	}
	logging.Setup(cfg.LogLevel)

	a, err := app.New(cfg)
	if err != nil {
		return ctx, nil, err
	}
	return middleware.WithUsername(ctx, *actor), a, nil
}

// fail prints err and returns the failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
