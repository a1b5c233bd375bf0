package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var settingsUpdate internal.SettingsUpdate

var apiKeysCmd = &cobra.Command{
	Use:     "apikeys",
	Aliases: []string{"api-keys"},
	Short:   "Manage your API keys",
}

var apiKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.APIKeys(ctx), nil)
		})
	},
}

var apiKeysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CreateAPIKey(ctx, args[0]), printObject)
		})
	},
}

var apiKeysDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DeleteAPIKey(ctx, args[0]), done("API key deleted"))
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change deployment settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the deployment settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.Settings(ctx), printObject)
		})
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change deployment settings",
	Long: `Change deployment settings. Settings not given on the command line keep
their current value; API keys are only sent when passed explicitly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			current, err := resultValue(a.catalog.Settings(ctx))
			if err != nil {
				return err
			}
			update := mergeSettings(current, settingsUpdate, cmd.Flags().Changed)
			return render(cmd, a.catalog.UpdateSettings(ctx, update), done("Settings updated"))
		})
	},
}

// mergeSettings fills the fields the user did not set from current. Secrets
// are marked written only when their flag was given.
func mergeSettings(current internal.Object, in internal.SettingsUpdate, changed func(string) bool) internal.SettingsUpdate {
	out := in
	keep := func(flag, key string, dst *string) {
		if changed(flag) {
			return
		}
		if s, ok := current[key].(string); ok {
			*dst = s
		}
	}
	keep("scrape-type", "scrape_type", &out.ScrapeType)
	keep("ollama-url", "ollama_url", &out.OllamaURL)
	keep("ollama-embedding-model", "ollama_embedding_model", &out.OllamaEmbeddingModel)
	keep("ollama-base-model", "ollama_base_model", &out.OllamaBaseModel)
	keep("ai-provider", "ai_model_provider", &out.AIModelProvider)

	out.OpenAIAPIKeyWritten = changed("openai-api-key")
	out.FirecrawlAPIKeyWritten = changed("firecrawl-api-key")
	out.YoutubeAPIKeyWritten = changed("youtube-api-key")
	return out
}

var ollamaCmd = &cobra.Command{
	Use:   "ollama",
	Short: "Ollama helpers",
}

var ollamaValidateCmd = &cobra.Command{
	Use:   "validate <url>",
	Short: "Check that the backend can reach an Ollama server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := resultValue(a.catalog.ValidateOllamaURL(ctx, args[0]))
			if err != nil {
				return err
			}
			if outputFormat != "" {
				return exportValue(cmd.OutOrStdout(), res)
			}
			if ok, _ := res["is_valid"].(bool); !ok {
				msg, _ := res["error"].(string)
				if msg == "" {
					msg = "Ollama server is not reachable"
				}
				return fmt.Errorf("%s", msg)
			}
			internal.PrintSuccess(fmt.Sprintf("Ollama server at %s is reachable", args[0]))
			return printObject(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	f := settingsUpdateCmd.Flags()
	f.StringVar(&settingsUpdate.OpenAIAPIKey, "openai-api-key", "", "OpenAI API key")
	f.StringVar(&settingsUpdate.FirecrawlAPIKey, "firecrawl-api-key", "", "Firecrawl API key")
	f.StringVar(&settingsUpdate.YoutubeAPIKey, "youtube-api-key", "", "YouTube API key")
	f.StringVar(&settingsUpdate.ScrapeType, "scrape-type", "", "Website scraper: crawl4ai or firecrawl")
	f.StringVar(&settingsUpdate.OllamaURL, "ollama-url", "", "Ollama server URL")
	f.StringVar(&settingsUpdate.OllamaEmbeddingModel, "ollama-embedding-model", "", "Ollama embedding model")
	f.StringVar(&settingsUpdate.OllamaBaseModel, "ollama-base-model", "", "Ollama base model")
	f.StringVar(&settingsUpdate.AIModelProvider, "ai-provider", "", "AI model provider: openai or ollama")

	apiKeysCmd.AddCommand(apiKeysListCmd, apiKeysCreateCmd, apiKeysDeleteCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsUpdateCmd)
	ollamaCmd.AddCommand(ollamaValidateCmd)
	rootCmd.AddCommand(apiKeysCmd, settingsCmd, ollamaCmd)
}
