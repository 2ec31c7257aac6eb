// Command stock is the command line front end of the ledger
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range itemCommands {
		commander.Register(c, "items")
	}
	for _, c := range stockCommands {
		commander.Register(c, "stock")
	}
	for _, c := range dataCommands {
		commander.Register(c, "data")
	}

	flag.Parse()

	a := &app{}
	status := commander.Execute(context.Background(), a)
	a.Close()
	os.Exit(int(status))
}
