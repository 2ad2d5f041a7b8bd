package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dshills/neura/internal/logging"
	"github.com/dshills/neura/internal/output"
)

var version = "0.1.0"

const (
	ExitSuccess     = 0
	ExitFindings    = 1
	ExitUsageError  = 2
	ExitAuthError   = 3
	ExitSourceError = 4
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "neura",
	Short: "AI code review for pull and merge requests",
	Long: "Neura reviews the changes of a GitHub pull request, a GitLab merge request, or a local\n" +
		"working tree with an LLM and posts inline comments with deterministic exit codes.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	exitCode = ExitSuccess
	output.Version = version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail reports err on the command's stderr and records the exit code.
func fail(cmd *cobra.Command, code int, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = code
}

func setupLogging(level, format string, w io.Writer) error {
	if flagVerbose {
		level = "debug"
	}
	return logging.Setup(level, format, w)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print neura version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "neura version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(reviewCmd, gitlabCmd, localCmd, configCmd, modelsCmd, hookCmd, versionCmd)
}
