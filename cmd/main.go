package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"bpmdsl.dev/compiler/cmd/command"
)

func main() {
	app := &cli.App{
		Name:  "bpmc",
		Usage: "compile .bpm process definitions into engine-ready BPMN 2.0 XML",
		Commands: []*cli.Command{
			&command.Convert,
			&command.Validate,
			&command.Info,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
