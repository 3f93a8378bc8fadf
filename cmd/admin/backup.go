package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/mmynk/cotisations/internal/backup"
)

type backupCmd struct {
	dir  string
	keep int
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "snapshot the database and rotate old backups" }
func (*backupCmd) Usage() string {
	return `cotis-admin backup [-dir d] [-keep n]

  Writes cotisations_backup_YYYYMMDD_HHMMSS.db and keeps only the n most
  recent backups. Defaults come from the configuration.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Backup directory (defaults to backup_dir)")
	f.IntVar(&c.keep, "keep", 0, "Number of backups to keep (defaults to backup_keep)")
}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	dir, keep := c.dir, c.keep
	if dir == "" {
		dir = a.Config.BackupDir
	}
	if keep <= 0 {
		keep = a.Config.BackupKeep
	}

	path, err := backup.Run(ctx, a.Store, dir, keep)
	if err != nil {
		return fail(err)
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}
