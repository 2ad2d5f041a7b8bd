package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/neura/internal/gitlab"
	"github.com/dshills/neura/internal/source"
)

var (
	flagGLProject string
	flagGLMR      int
	flagGLToken   string
)

var gitlabCmd = &cobra.Command{
	Use:   "gitlab",
	Short: "Review a GitLab merge request",
	Long:  "Fetch a merge request from GitLab, review each changed file, and post a summary note and one discussion per comment.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagGLProject == "" || flagGLMR <= 0 {
			return errors.New("--project and --mr are required")
		}
		cfg, ok := loadConfig(cmd)
		if !ok {
			return nil
		}
		client, err := gitlab.NewClient(gitlab.Options{
			Token:   tokenFrom(flagGLToken, "GITLAB_TOKEN"),
			Project: flagGLProject,
			BaseURL: cfg.GitLab.BaseURL,
		})
		if err != nil {
			fail(cmd, ExitSourceError, err)
			return nil
		}
		runChange(cmd, client, source.ChangeRef{Repo: flagGLProject, Number: flagGLMR}, cfg, flagDryRun || flagFile != "")
		return nil
	},
}

func init() {
	addChangeFlags(gitlabCmd.Flags())
	gitlabCmd.Flags().StringVar(&flagGLProject, "project", "", "Project ID or full path")
	gitlabCmd.Flags().IntVar(&flagGLMR, "mr", 0, "Merge request IID")
	gitlabCmd.Flags().StringVar(&flagGLToken, "gitlab-token", "", "GitLab token (default: GITLAB_TOKEN)")
}
