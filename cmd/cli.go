package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reviewgate/internal/report"
	"reviewgate/internal/version"
)

// ExitError carries a process exit code back to main. A nil Err means the
// command already reported everything it had to say.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute result to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return report.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return report.ExitError
}

// Silent reports whether err needs no message on stderr.
func Silent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}

func setupError(format string, args ...any) error {
	return &ExitError{Code: report.ExitError, Err: fmt.Errorf(format, args...)}
}

func Execute(args []string) error {
	return execute(args, os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && !isExitError(err) {
		// Flag and argument errors from cobra are usage problems.
		return &ExitError{Code: report.ExitError, Err: err}
	}
	return err
}

func isExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewgate",
		Short: "Rule-based review gate for security and quality defects",
		Long: strings.TrimSpace(`
reviewgate scans a codebase for missing authorization checks, unscoped
multi-tenant queries, injection-prone query construction, hardcoded
credentials, swallowed errors and unsafe markup rendering, then prints a
severity-ranked report with an APPROVE, COMMENT or REQUEST_CHANGES verdict.

Exit status: 0 approve or comment, 1 request changes, 2 error or partial scan.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		newScanCmd(),
		newRulesCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reviewgate version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

// listFlag collects repeatable, comma-separable flag values.
type listFlag struct {
	values []string
}

func (f *listFlag) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.values, ",")
}

func (f *listFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			f.values = append(f.values, part)
		}
	}
	return nil
}

func (f *listFlag) Type() string { return "list" }

func (f *listFlag) Values() []string {
	if f == nil || len(f.values) == 0 {
		return nil
	}
	return append([]string(nil), f.values...)
}
