package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sergev/eelwasm/optimize"
	"github.com/sergev/eelwasm/parser"
)

func newFmtCmd() *cobra.Command {
	var optimized bool
	cmd := &cobra.Command{
		Use:   "fmt <file.eel>",
		Short: "Print EEL source in canonical form",
		Long: "Print EEL source in canonical form. Comments are dropped and every\n" +
			"nested operator is parenthesised. Use - to read standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var data []byte
			var err error
			if name == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(name)
			}
			if err != nil {
				return errors.Wrap(err, "read source")
			}
			src, err := parser.ParseSource(string(data))
			if err != nil {
				return sourceError(name, string(data), err)
			}
			var node parser.Node = src.Script
			if optimized {
				node, _ = optimize.Run(node, optimize.Options{ClampDivision: true})
			}
			if text := parser.Print(node); text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&optimized, "optimize", false, "Print the source after constant folding and propagation")

	return cmd
}
