package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/neura/internal/gitctx"
)

const (
	hookName        = "pre-push"
	hookMarkerStart = "# >>> neura pre-push hook >>>"
	hookMarkerEnd   = "# <<< neura pre-push hook <<<"
)

var (
	hookFailOn string
	hookFormat string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-push hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install neura as a git pre-push hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd)
		if err != nil {
			fail(cmd, ExitSourceError, err)
			return nil
		}

		section := generateHookScript(hookFailOn, hookFormat)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fail(cmd, ExitSourceError, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceNeuraSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fail(cmd, ExitSourceError, fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitSourceError, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed neura pre-push hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the neura pre-push hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd)
		if err != nil {
			fail(cmd, ExitSourceError, err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-push hook found.")
				return nil
			}
			fail(cmd, ExitSourceError, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := removeNeuraSection(string(existing))

		// only a shebang left: drop the file
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fail(cmd, ExitSourceError, fmt.Errorf("removing hook file: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed neura pre-push hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitSourceError, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed neura section from %s\n", hookPath)
		return nil
	},
}

func getHookPath(cmd *cobra.Command) (string, error) {
	repo, err := gitctx.Open(".", gitctx.Options{})
	if err != nil {
		return "", err
	}
	dir, err := repo.HooksDir(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("locating hooks directory: %w", err)
	}
	return filepath.Join(dir, hookName), nil
}

// generateHookScript reviews each pushed ref against the remote commit it
// replaces. New branches and deletions are not reviewed.
func generateHookScript(failOn, format string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("zero=0000000000000000000000000000000000000000\n")
	b.WriteString("while read local_ref local_sha remote_ref remote_sha; do\n")
	b.WriteString("  [ \"$local_sha\" = \"$zero\" ] && continue\n")
	b.WriteString("  [ \"$remote_sha\" = \"$zero\" ] && continue\n")
	fmt.Fprintf(&b, "  neura local --base \"$remote_sha\" --fail-on %s --format %s\n", failOn, format)
	b.WriteString("  NEURA_EXIT=$?\n")
	b.WriteString("  if [ $NEURA_EXIT -eq 1 ]; then\n")
	b.WriteString("    echo \"neura: findings above threshold, push blocked\"\n")
	b.WriteString("    exit 1\n")
	b.WriteString("  elif [ $NEURA_EXIT -ge 2 ]; then\n")
	b.WriteString("    echo \"neura: review failed (exit $NEURA_EXIT), allowing push\"\n")
	b.WriteString("  fi\n")
	b.WriteString("done\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceNeuraSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeNeuraSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd, hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Fail on severity threshold (none, info, low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
}
