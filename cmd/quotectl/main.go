// Command quotectl manages the persisted quote collection from the shell.
// It opens the same store as the service, so the service must not be
// running against the same store path.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	env := &environment{stdout: os.Stdout, stderr: os.Stderr}
	flag.StringVar(&env.profile, "profile", os.Getenv("APP_ENVIRONMENT"), "configuration profile (defaults to local)")

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands(env) {
		commander.Register(c, "quotes")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)

	stop()
	os.Exit(int(status))
}
