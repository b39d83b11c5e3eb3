package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-intake/internal/observability/logging"
)

// Exit codes of the validate command. Anything else that fails exits 2.
const (
	exitPass     = 0
	exitFail     = 1
	exitUsage    = 2
	exitDeferred = 3
)

// exitCodeError carries a non-zero exit code out of a command without printing
// an error message.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type rootOptions struct {
	verbose   bool
	rulesFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "intakectl",
		Short:         "Validate document submissions against document-type rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "info"
			if opts.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.NewTextLogger(cmd.ErrOrStderr(), level))
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&opts.rulesFile, "rules", os.Getenv("RULES_FILE"), "Path to the YAML rules file")

	cmd.AddCommand(
		newValidateCmd(opts),
		newRulesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return exitCode(cmd, cmd.Execute())
}

func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return exitPass
	}
	var codeErr exitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return exitUsage
}
