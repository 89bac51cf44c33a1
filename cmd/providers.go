package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapquiz/snapquiz/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show configured model backends and their pipeline roles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := llm.ConfigFromEnv()
		rb := resolveBackends(cfg)

		assignments := []struct{ role, backend string }{
			{"generator", rb.Generator},
			{"fallback generator", rb.Fallback},
			{"validator", rb.Validators[0]},
			{"validator", rb.Validators[1]},
			{"answer panel", rb.Answers[0]},
			{"answer panel", rb.Answers[1]},
			{"answer panel", rb.Answers[2]},
			{"vision checks", rb.Vision},
		}
		roles := make(map[string][]string)
		for _, a := range assignments {
			if n := len(roles[a.backend]); n > 0 && roles[a.backend][n-1] == a.role {
				continue
			}
			roles[a.backend] = append(roles[a.backend], a.role)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%-10s  %-28s  %-8s  %s\n", "BACKEND", "MODEL", "API KEY", "ROLES")
		for _, backend := range rb.distinct() {
			model, apiKey := backendInfo(cfg, backend)
			key := "missing"
			if apiKey != "" {
				key = "set"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s  %-28s  %-8s  %s\n",
				backend, model, key, strings.Join(roles[backend], ", "))
		}
	},
}

func backendInfo(cfg llm.Config, backend string) (model, apiKey string) {
	switch backend {
	case "anthropic":
		return cfg.Anthropic.Model, cfg.Anthropic.APIKey
	case "openai":
		return cfg.OpenAI.Model, cfg.OpenAI.APIKey
	case "gemini":
		return cfg.Gemini.Model, cfg.Gemini.APIKey
	case "openrouter":
		return cfg.OpenRouter.Model, cfg.OpenRouter.APIKey
	}
	return "?", ""
}
