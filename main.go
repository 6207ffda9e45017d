package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gitlab.com/offview/clicmds"
)

func main() {
	app := cli.NewApp()
	app.Name = "offview"
	app.Version = "0.1"
	app.Usage = "Drive an embeddable off-process web view"
	app.Commands = []*cli.Command{
		{
			Name:    "open",
			Aliases: []string{"o"},
			Usage:   "open a url in a view and snapshot it",
			Action:  clicmds.Open,
			Flags:   clicmds.OpenFlags(),
		},
		{
			Name:    "policy",
			Aliases: []string{"p"},
			Usage:   "validate a request policy file",
			Action:  clicmds.PolicyCheck,
			Flags:   clicmds.PolicyCheckFlags(),
		},
		{
			Name:    "history",
			Aliases: []string{"h"},
			Usage:   "print the visit log of a profile",
			Action:  clicmds.History,
			Flags:   clicmds.HistoryFlags(),
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
