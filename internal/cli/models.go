package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/neura/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "openai",
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4.1",
			"gpt-4.1-mini",
			"o3-mini",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-opus-4-20250514",
			"claude-3-5-haiku-latest",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-pro",
			"gemini-2.5-flash",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.1",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
	{
		Provider: "lmstudio",
		Models:   []string{"(any loaded model)"},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s (default %s):\n", info.Provider, providers.DefaultModel(info.Provider))
			for _, m := range info.Models {
				fmt.Fprintf(out, "  - %s\n", m)
			}
			if env := providers.KeyEnv(info.Provider); env != "" {
				fmt.Fprintf(out, "  key: %s\n", env)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := loadConfig(cmd)
		if !ok {
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", cfg.AI.Provider)

		r, err := newResponder(cfg)
		if err != nil {
			fail(cmd, ExitAuthError, fmt.Errorf("FAIL: %w", err))
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = r.Respond(ctx, providers.Request{
			System:    "Respond with exactly: ok",
			Messages:  []providers.Message{{Role: providers.RoleUser, Content: "ping"}},
			MaxTokens: 10,
		})
		if err != nil {
			fail(cmd, ExitAuthError, fmt.Errorf("FAIL: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", r.Name())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	modelsDoctorCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key for the provider")
}
