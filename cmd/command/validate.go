package command

import (
	"github.com/common-fate/clio"
	"github.com/urfave/cli/v2"

	"bpmdsl.dev/compiler"
	"bpmdsl.dev/compiler/parser"
)

var Validate = cli.Command{
	Name:  "validate",
	Usage: "print the diagnostics report for a .bpm process definition",
	Action: func(c *cli.Context) error {
		file := c.Args().First()
		if file == "" {
			return cli.Exit("validate requires a .bpm file argument", 2)
		}

		proc, sidecar, err := parser.ParseFile(file)
		if err != nil {
			clio.Errorf("%s", err.Error())
			return cli.Exit(err, exitCode(err))
		}

		result, err := compiler.CompileSource(proc, sidecar, compiler.DefaultOptions())
		ve, isValidationErr := err.(*compiler.ValidationError)
		switch {
		case err == nil:
			for _, w := range result.Report.Warnings {
				clio.Warnf("%s", w.Error())
			}
			clio.Success("no errors found")
			return nil
		case isValidationErr:
			for _, e := range ve.Report.Errors {
				clio.Errorf("%s", e.Error())
			}
			for _, w := range ve.Report.Warnings {
				clio.Warnf("%s", w.Error())
			}
			return cli.Exit("validation failed", 1)
		default:
			clio.Errorf("%s", err.Error())
			return cli.Exit(err, exitCode(err))
		}
	},
}
