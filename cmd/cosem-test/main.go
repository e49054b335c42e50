// Command cosem-test runs COSEM/DLMS conformance tests against meters.
//
// Every meter is described by a YAML profile. The run command tests the
// meters on a pool of workers and writes one report directory per meter.
//
// Usage:
//
//	cosem-test <command> [flags]
//
// Examples:
//
//	# Test two meters with the default settings
//	cosem-test run --profile meter1.yaml --profile meter2.yaml
//
//	# Dry run against the simulated meter
//	cosem-test run --profile meter1.yaml --simulate --format text,json
//
//	# Check user scripts before a run
//	cosem-test validate --external ./scripts
//
//	# Show the outgoing PDUs of a trace
//	cosem-test trace --direction out results/meter1/trace.clog
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// errTestsFailed makes the process exit with status 1 after the reports
// were written.
var errTestsFailed = errors.New("conformance tests failed")

// rootOptions are the flags shared by every command.
type rootOptions struct {
	logLevel string
}

func (o *rootOptions) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", o.logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "cosem-test",
		Short: "COSEM/DLMS meter conformance tests",
		Long: `cosem-test replays conformance scripts against COSEM/DLMS meters and
reports every deviation from the expected replies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newTraceCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
