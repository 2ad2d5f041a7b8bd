package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/neura/internal/gitctx"
)

var (
	flagLocalBase    string
	flagLocalStaged  bool
	flagContextLines int
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Review local changes",
	Long: "Review uncommitted changes in the current repository. By default the working tree is\n" +
		"compared with the index; --staged compares the index with HEAD and --base names another\n" +
		"revision. Nothing is published.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := loadConfig(cmd)
		if !ok {
			return nil
		}
		repo, err := gitctx.Open(".", gitctx.Options{
			Base:         flagLocalBase,
			Staged:       flagLocalStaged,
			ContextLines: flagContextLines,
		})
		if err != nil {
			fail(cmd, ExitSourceError, err)
			return nil
		}
		runChange(cmd, repo, repo.Ref(), cfg, true)
		return nil
	},
}

func init() {
	addReviewFlags(localCmd.Flags())
	localCmd.Flags().StringVar(&flagFile, "file", "", "Analyze a single changed file")
	localCmd.Flags().StringVar(&flagLocalBase, "base", "", "Revision to compare against")
	localCmd.Flags().BoolVar(&flagLocalStaged, "staged", false, "Review staged changes")
	localCmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in the diff")
}
