package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sergev/eelwasm/wasm"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.wasm>",
		Short: "List the sections, imports and exports of a compiled module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read module")
			}
			sections, err := wasm.Sections(bin)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			imports, err := wasm.Imports(bin)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			exports, err := wasm.Exports(bin)
			if err != nil {
				return errors.Wrap(err, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d bytes\n", len(bin))
			for _, s := range sections {
				fmt.Fprintf(out, "section %-8s offset %6d size %6d entries %d\n", s.ID, s.Offset, s.Size, s.Entries)
			}
			for _, imp := range imports {
				switch imp.Kind {
				case wasm.ExternGlobal:
					mut := ""
					if imp.Global.Mutable {
						mut = " mut"
					}
					fmt.Fprintf(out, "import %s.%s global %s%s\n", imp.Module, imp.Name, imp.Global.Type, mut)
				default:
					fmt.Fprintf(out, "import %s.%s %s type %d\n", imp.Module, imp.Name, imp.Kind, imp.Type)
				}
			}
			for _, exp := range exports {
				fmt.Fprintf(out, "export %s %s %d\n", exp.Name, exp.Kind, exp.Index)
			}
			return nil
		},
	}
}
