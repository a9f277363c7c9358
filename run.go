package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/runtime"
)

func newRunCmd() *cobra.Command {
	var flags compileFlags
	var calls []string
	var frames int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Compile a manifest, call its functions and print the pool variables",
		Long: "Compile a manifest, call its functions and print the pool variables.\n\n" +
			"Functions run in the order given by --call, or in declaration order when\n" +
			"--call is absent. The whole sequence repeats --frames times.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			m, bin, err := flags.compileManifest(args[0])
			if err != nil {
				return err
			}
			opts := m.CompileOptions()
			rt, err := runtime.New(ctx, opts.Pools, runtime.WithSeed(seed))
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			for _, v := range m.InitialValues() {
				if err := rt.Set(v.Pool, v.Name, v.Value); err != nil {
					return err
				}
			}
			inst, err := rt.Load(ctx, bin)
			if err != nil {
				return err
			}
			order := calls
			if len(order) == 0 {
				order = inst.Functions()
			}
			for frame := 0; frame < frames; frame++ {
				for _, name := range order {
					if err := inst.Call(ctx, name); err != nil {
						return err
					}
				}
			}

			out := cmd.OutOrStdout()
			for _, pool := range rt.Pools() {
				vars, err := rt.Vars(pool)
				if err != nil {
					return err
				}
				for _, v := range vars {
					fmt.Fprintf(out, "%s.%s = %s\n", pool, v.Name, parser.FormatNumber(v.Value))
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&calls, "call", nil, "Function to call; may be repeated")
	cmd.Flags().IntVar(&frames, "frames", 1, "Number of times to run the call sequence")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for rand()")

	return cmd
}
