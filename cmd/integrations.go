package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var (
	channelsFile string
	selfhosted   internal.SelfhostedIntegration
)

var integrationsCmd = &cobra.Command{
	Use:     "integrations",
	Aliases: []string{"integration"},
	Short:   "Manage a guru's integrations (Slack, Discord, GitHub, Jira...)",
}

var integrationsListCmd = &cobra.Command{
	Use:   "list <guru>",
	Short: "List a guru's integrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.IntegrationsList(ctx, args[0]), nil)
		})
	},
}

var integrationsShowCmd = &cobra.Command{
	Use:   "show <guru> <type>",
	Short: "Show one integration",
	Long: `Show one integration. When the guru has no integration of that type, the
backend's encoded OAuth state is printed so a new one can be connected.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.IntegrationDetails(ctx, args[0], args[1]), printObject)
		})
	},
}

var integrationsDeleteCmd = &cobra.Command{
	Use:   "delete <guru> <type>",
	Short: "Disconnect an integration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DeleteIntegration(ctx, args[0], args[1]), done("Integration deleted"))
		})
	},
}

var integrationsChannelsCmd = &cobra.Command{
	Use:   "channels <guru> <type>",
	Short: "List the channels an integration can answer in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.IntegrationChannels(ctx, args[0], args[1]), nil)
		})
	},
}

var integrationsSaveChannelsCmd = &cobra.Command{
	Use:   "save-channels <guru> <type>",
	Short: "Replace the channels an integration answers in",
	Long: `Replace the channels an integration answers in. The channel list is read
as JSON from --file, or from stdin when --file is "-" or unset.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, err := readJSONInput(cmd.InOrStdin(), channelsFile)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.SaveIntegrationChannels(ctx, args[0], args[1], channels), done("Channels saved"))
		})
	},
}

var integrationsTestCmd = &cobra.Command{
	Use:   "test <integration-id> <channel-id>",
	Short: "Send a test message to a channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.SendIntegrationTestMessage(ctx, args[0], args[1]), done("Test message sent"))
		})
	},
}

var integrationsCreateCmd = &cobra.Command{
	Use:   "create <code> <state>",
	Short: "Finish connecting an integration from its OAuth callback",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CreateIntegration(ctx, args[0], args[1]), printObject)
		})
	},
}

var integrationsSelfhostedCmd = &cobra.Command{
	Use:   "selfhosted <guru> <type>",
	Short: "Connect an integration with manually supplied credentials",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CreateSelfhostedIntegration(ctx, args[0], args[1], selfhosted), done("Integration connected"))
		})
	},
}

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Manage embeddable widget ids",
}

var widgetCreateCmd = &cobra.Command{
	Use:   "create <guru> <domain-url>",
	Short: "Create a widget id for a domain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CreateWidgetID(ctx, args[0], args[1]), printObject)
		})
	},
}

var widgetDeleteCmd = &cobra.Command{
	Use:   "delete <guru> <widget-id>",
	Short: "Delete a widget id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DeleteWidgetID(ctx, args[0], args[1]), printAck)
		})
	},
}

// readJSONInput decodes a JSON document from path, or from stdin for "" and "-".
func readJSONInput(stdin io.Reader, path string) (interface{}, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	return v, nil
}

func init() {
	integrationsSaveChannelsCmd.Flags().StringVar(&channelsFile, "file", "", "JSON file with the channel list (default stdin)")

	f := integrationsSelfhostedCmd.Flags()
	f.StringVar(&selfhosted.WorkspaceName, "workspace-name", "", "Workspace or server name")
	f.StringVar(&selfhosted.ExternalID, "external-id", "", "Workspace or server id")
	f.StringVar(&selfhosted.AccessToken, "access-token", "", "Bot access token (Slack, Discord)")
	f.StringVar(&selfhosted.ClientID, "client-id", "", "GitHub app client id")
	f.StringVar(&selfhosted.InstallationID, "installation-id", "", "GitHub app installation id")
	f.StringVar(&selfhosted.PrivateKey, "private-key", "", "GitHub app private key")
	f.StringVar(&selfhosted.GithubSecret, "github-secret", "", "GitHub webhook secret")
	f.StringVar(&selfhosted.JiraDomain, "jira-domain", "", "Jira domain")
	f.StringVar(&selfhosted.JiraUserEmail, "jira-email", "", "Jira user email")
	f.StringVar(&selfhosted.JiraAPIKey, "jira-api-key", "", "Jira API key")
	f.StringVar(&selfhosted.ConfluenceDomain, "confluence-domain", "", "Confluence domain")
	f.StringVar(&selfhosted.ConfluenceUserEmail, "confluence-email", "", "Confluence user email")
	f.StringVar(&selfhosted.ConfluenceAPIToken, "confluence-api-token", "", "Confluence API token")
	f.StringVar(&selfhosted.ZendeskDomain, "zendesk-domain", "", "Zendesk domain")
	f.StringVar(&selfhosted.ZendeskUserEmail, "zendesk-email", "", "Zendesk user email")
	f.StringVar(&selfhosted.ZendeskAPIToken, "zendesk-api-token", "", "Zendesk API token")

	integrationsCmd.AddCommand(integrationsListCmd, integrationsShowCmd, integrationsDeleteCmd,
		integrationsChannelsCmd, integrationsSaveChannelsCmd, integrationsTestCmd,
		integrationsCreateCmd, integrationsSelfhostedCmd)
	widgetCmd.AddCommand(widgetCreateCmd, widgetDeleteCmd)
	rootCmd.AddCommand(integrationsCmd, widgetCmd)
}
