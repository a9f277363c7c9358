package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/manifest"
)

type compileFlags struct {
	parallel   bool
	noOptimize bool
	maxRounds  int
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "Parse and optimize functions concurrently")
	cmd.Flags().BoolVar(&f.noOptimize, "no-optimize", false, "Skip constant folding and propagation")
	cmd.Flags().IntVar(&f.maxRounds, "max-rounds", 0, "Bound the optimizer's fixpoint loop (0 selects the default)")
}

// compileManifest loads a manifest and compiles every function in it.
func (f *compileFlags) compileManifest(path string) (*manifest.Manifest, []byte, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}
	opts := m.CompileOptions()
	opts.Parallel = f.parallel
	opts.DisableOptimizer = f.noOptimize
	opts.MaxOptimizerRounds = f.maxRounds
	bin, err := compiler.Compile(opts)
	if err != nil {
		return nil, nil, err
	}
	glog.V(1).Infof("compiled %s: %d functions, %d bytes", path, len(opts.Functions), len(bin))
	return m, bin, nil
}

func newCompileCmd() *cobra.Command {
	var flags compileFlags
	var outp string
	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Compile the functions of a manifest into one WebAssembly module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, bin, err := flags.compileManifest(args[0])
			if err != nil {
				return err
			}
			if outp == "" {
				outp = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".wasm"
			}
			if err := os.WriteFile(outp, bin, 0o644); err != nil {
				return errors.Wrap(err, "write module")
			}
			glog.V(1).Infof("wrote %s", outp)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outp, "output", "o", "", "Output file (default: the manifest path with a .wasm extension)")

	return cmd
}
