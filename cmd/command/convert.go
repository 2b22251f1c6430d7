package command

import (
	"os"

	"github.com/common-fate/clio"
	"github.com/urfave/cli/v2"

	"bpmdsl.dev/compiler"
)

var Convert = cli.Command{
	Name:  "convert",
	Usage: "compile a .bpm process definition into BPMN 2.0 XML",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "path to write the generated XML to (defaults to stdout)"},
	},
	Action: func(c *cli.Context) error {
		file := c.Args().First()
		if file == "" {
			return cli.Exit("convert requires a .bpm file argument", 2)
		}

		result, err := compiler.CompileFile(file, compiler.DefaultOptions())
		if err != nil {
			reportCompileError(err)
			return cli.Exit(err, exitCode(err))
		}

		for _, w := range result.Report.Warnings {
			clio.Warnf("%s", w.Error())
		}

		output := c.Path("output")
		if output == "" {
			os.Stdout.WriteString(result.XML)
			return nil
		}

		if err := os.WriteFile(output, []byte(result.XML), 0o644); err != nil {
			return cli.Exit(err, 2)
		}
		clio.Successf("wrote %s", output)
		return nil
	},
}

func reportCompileError(err error) {
	if ve, ok := err.(*compiler.ValidationError); ok {
		for _, e := range ve.Report.Errors {
			clio.Errorf("%s", e.Error())
		}
		return
	}
	clio.Errorf("%s", err.Error())
}
