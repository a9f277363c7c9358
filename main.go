// Command eelwasm compiles EEL preset code to WebAssembly modules and runs
// them.
package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logToStderr bool
	var verbose int
	cmd := &cobra.Command{
		Use:           "eelwasm",
		Short:         "Compile EEL expressions to WebAssembly",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(logToStderr, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
	}

	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr instead of to files")
	cmd.PersistentFlags().IntVarP(
		&verbose, "verbose", "v", 0, "Enable verbose logging (e.g., v=3); anything >5 is very verbose")

	cmd.AddCommand(newCompileCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newFmtCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newReplCmd())

	return cmd
}

// initLogging forwards the command line settings to glog, which reads its
// configuration from the standard flag set.
func initLogging(logToStderr bool, verbose int) error {
	if logToStderr {
		if err := flag.Set("logtostderr", "true"); err != nil {
			return errors.Wrap(err, "logtostderr")
		}
	}
	if verbose > 0 {
		if err := flag.Set("v", strconv.Itoa(verbose)); err != nil {
			return errors.Wrap(err, "verbose")
		}
	}
	return nil
}
