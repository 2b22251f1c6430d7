package command

import (
	"fmt"
	"os"

	"github.com/dominikbraun/graph/draw"
	"github.com/urfave/cli/v2"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/parser"
)

var Info = cli.Command{
	Name:  "info",
	Usage: "print a human-readable AST summary for a .bpm process definition",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "dot", Usage: "print a Graphviz DOT dump of the AST instead of the text summary"},
	},
	Action: func(c *cli.Context) error {
		file := c.Args().First()
		if file == "" {
			return cli.Exit("info requires a .bpm file argument", 2)
		}

		proc, sidecar, err := parser.ParseFile(file)
		if err != nil {
			return cli.Exit(err, exitCode(err))
		}

		if c.Bool("dot") {
			g, err := ast.NewGraph(proc)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := draw.DOT(g.Underlying(), os.Stdout); err != nil {
				return cli.Exit(err, 2)
			}
			return nil
		}

		fmt.Printf("process %q (id=%s, version=%s)\n", proc.Name, proc.ID, proc.Version)
		fmt.Printf("sidecar: %s (%d schemas)\n", sidecar.Path, len(sidecar.Schemas))
		fmt.Printf("elements: %d, flows: %d\n", len(proc.Elements), len(proc.Flows))
		for _, e := range proc.Elements {
			fmt.Printf("  %-12s %-20s %s\n", e.Kind, e.ID, e.Name)
		}
		for _, f := range proc.Flows {
			if f.Condition != "" {
				fmt.Printf("  %s -> %s [%s]\n", f.SourceID, f.TargetID, f.Condition)
				continue
			}
			fmt.Printf("  %s -> %s\n", f.SourceID, f.TargetID)
		}

		return nil
	},
}
