package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type passwdCmd struct {
	user     string
	password string
}

func (*passwdCmd) Name() string     { return "passwd" }
func (*passwdCmd) Synopsis() string { return "set a staff account's password, creating the account if needed" }
func (*passwdCmd) Usage() string {
	return `cotis-admin passwd -user <name> -password <password>
`
}

func (c *passwdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Account username")
	f.StringVar(&c.password, "password", "", "New password (at least 8 characters)")
}

func (c *passwdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.password == "" {
		fmt.Println("-user and -password are required")
		return subcommands.ExitUsageError
	}

	ctx, a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if err := a.Services.Auth.SetPassword(ctx, c.user, c.password); err != nil {
		return fail(err)
	}
	fmt.Printf("Password updated for %s\n", c.user)
	return subcommands.ExitSuccess
}
