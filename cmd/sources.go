package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var (
	sourcesPage int

	addWebsites   []string
	addYoutube    []string
	addGithub     []string
	addJira       []string
	addZendesk    []string
	addConfluence []string
	addPDFs       []string
	addPrivatePDF bool

	privacyPrivate bool

	crawlWatch    bool
	crawlInterval time.Duration
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage a guru's data sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list <guru>",
	Short: "List a guru's data sources with their status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.GuruDataSources(ctx, args[0], sourcesPage), printSources)
		})
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <guru>",
	Short: "Add URLs and PDF files as data sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := sourcesForm()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.AddGuruSources(ctx, args[0], form), done("Data sources added"))
		})
	},
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <guru> <id...>",
	Short: "Delete data sources",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DeleteGuruSources(ctx, args[0], args[1:]), printAck)
		})
	},
}

var sourcesReindexCmd = &cobra.Command{
	Use:   "reindex <guru> <id...>",
	Short: "Reindex data sources",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.ReindexGuruSources(ctx, args[0], args[1:]), printAck)
		})
	},
}

var sourcesPrivacyCmd = &cobra.Command{
	Use:   "privacy <guru> <id...>",
	Short: "Mark data sources private or public",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		type privacy struct {
			ID      string `json:"id"`
			Private bool   `json:"private"`
		}
		payload := struct {
			DataSources []privacy `json:"data_sources"`
		}{}
		for _, id := range args[1:] {
			payload.DataSources = append(payload.DataSources, privacy{ID: id, Private: privacyPrivate})
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.UpdateDataSourcesPrivacy(ctx, args[0], payload), done("Privacy updated"))
		})
	},
}

// sourcesForm builds the upload form. URL lists travel as JSON arrays.
func sourcesForm() (*internal.FormData, error) {
	form := internal.NewFormData()
	lists := []struct {
		field string
		urls  []string
	}{
		{"website_urls", addWebsites},
		{"youtube_urls", addYoutube},
		{"github_urls", addGithub},
		{"jira_urls", addJira},
		{"zendesk_urls", addZendesk},
		{"confluence_urls", addConfluence},
	}
	total := len(addPDFs)
	for _, l := range lists {
		if len(l.urls) == 0 {
			continue
		}
		data, err := json.Marshal(l.urls)
		if err != nil {
			return nil, err
		}
		form.Set(l.field, string(data))
		total += len(l.urls)
	}
	if total == 0 {
		return nil, fmt.Errorf("nothing to add: pass at least one URL or --pdf")
	}

	privacies := make([]bool, 0, len(addPDFs))
	for _, path := range addPDFs {
		if err := form.AddFilePath("pdf_files", path); err != nil {
			return nil, err
		}
		privacies = append(privacies, addPrivatePDF)
	}
	if len(privacies) > 0 {
		data, err := json.Marshal(privacies)
		if err != nil {
			return nil, err
		}
		form.Set("pdf_privacies", string(data))
	}
	return form, nil
}

func printSources(w io.Writer, page internal.Object) error {
	results, _ := page["results"].([]interface{})
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No data sources.")
		return err
	}
	for _, item := range results {
		src, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %v %s %s\n", src["id"], titleStyle.Render(fmt.Sprint(src["url"])), slugStyle.Render(fmt.Sprint(src["status"])))
	}
	return nil
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Read sitemaps",
}

var sitemapParseCmd = &cobra.Command{
	Use:   "parse <sitemap-url>",
	Short: "List the URLs of a sitemap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.ParseSitemapURLs(ctx, args[0]), nil)
		})
	},
}

var sitemapRawCmd = &cobra.Command{
	Use:   "raw <path>",
	Short: "Print a sitemap document served by the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := strings.TrimPrefix(args[0], "/")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.SitemapData(ctx, slug), func(w io.Writer, body string) error {
				_, err := io.WriteString(w, body)
				return err
			})
		})
	},
}

var jiraCmd = &cobra.Command{
	Use:   "jira <integration-id> <jql>",
	Short: "List Jira issues matching a JQL query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.JiraIssues(ctx, args[0], args[1]), nil)
		})
	},
}

var confluenceCmd = &cobra.Command{
	Use:   "confluence <integration-id> <query>",
	Short: "Search Confluence pages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.ConfluencePages(ctx, args[0], args[1]), nil)
		})
	},
}

var zendeskCmd = &cobra.Command{
	Use:       "zendesk <tickets|articles> <integration-id>",
	Short:     "List Zendesk tickets or help center articles",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"tickets", "articles"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			switch args[0] {
			case "tickets":
				return render(cmd, a.catalog.ZendeskTickets(ctx, args[1]), nil)
			case "articles":
				return render(cmd, a.catalog.ZendeskArticles(ctx, args[1]), nil)
			}
			return fmt.Errorf("unknown zendesk listing %q (want tickets or articles)", args[0])
		})
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl websites into a guru",
}

var crawlStartCmd = &cobra.Command{
	Use:   "start <guru> <url>",
	Short: "Start crawling a website",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			started, err := resultValue(a.catalog.StartCrawl(ctx, args[0], args[1]))
			if err != nil {
				return err
			}
			if !crawlWatch {
				return exportOrPrint(cmd.OutOrStdout(), started)
			}
			id := fmt.Sprint(started["id"])
			status, err := watchCrawl(ctx, a.catalog, id, crawlInterval)
			if err != nil {
				return err
			}
			return exportOrPrint(cmd.OutOrStdout(), status)
		})
	},
}

var crawlStopCmd = &cobra.Command{
	Use:   "stop <crawl-id>",
	Short: "Stop a running crawl",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.StopCrawl(ctx, args[0]), done("Crawl stopped"))
		})
	},
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status <crawl-id>",
	Short: "Show crawl progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if !crawlWatch {
				return render(cmd, a.catalog.CrawlStatus(ctx, args[0]), printObject)
			}
			status, err := watchCrawl(ctx, a.catalog, args[0], crawlInterval)
			if err != nil {
				return err
			}
			return exportOrPrint(cmd.OutOrStdout(), status)
		})
	},
}

// watchCrawl polls a crawl until it leaves the running state.
func watchCrawl(ctx context.Context, cat *internal.Catalog, id string, interval time.Duration) (internal.Object, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	var last internal.Object
	err := internal.ShowProgress(ctx, fmt.Sprintf("Crawling (%s)...", id), func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			status, err := resultValue(cat.CrawlStatus(ctx, id))
			if err != nil {
				return err
			}
			last = status
			if !crawlRunning(status) {
				return nil
			}
			internal.LogDebug("Crawl %s: %v URLs discovered", id, status["discovered_urls_count"])
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
	return last, err
}

func crawlRunning(status internal.Object) bool {
	s, _ := status["status"].(string)
	return strings.EqualFold(s, "running")
}

func exportOrPrint(w io.Writer, obj internal.Object) error {
	if outputFormat != "" {
		return exportValue(w, obj)
	}
	return printObject(w, obj)
}

var youtubeCmd = &cobra.Command{
	Use:       "youtube <playlist|channel> <url>",
	Short:     "List the videos of a YouTube playlist or channel",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"playlist", "channel"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			switch args[0] {
			case "playlist":
				return render(cmd, a.catalog.YoutubePlaylist(ctx, args[1]), nil)
			case "channel":
				return render(cmd, a.catalog.YoutubeChannel(ctx, args[1]), nil)
			}
			return fmt.Errorf("unknown youtube listing %q (want playlist or channel)", args[0])
		})
	},
}

func init() {
	sourcesListCmd.Flags().IntVar(&sourcesPage, "page", 1, "Page number")

	f := sourcesAddCmd.Flags()
	f.StringArrayVar(&addWebsites, "website", nil, "Website URL (repeatable)")
	f.StringArrayVar(&addYoutube, "youtube", nil, "YouTube video URL (repeatable)")
	f.StringArrayVar(&addGithub, "github", nil, "GitHub repository URL (repeatable)")
	f.StringArrayVar(&addJira, "jira", nil, "Jira issue URL (repeatable)")
	f.StringArrayVar(&addZendesk, "zendesk", nil, "Zendesk ticket or article URL (repeatable)")
	f.StringArrayVar(&addConfluence, "confluence", nil, "Confluence page URL (repeatable)")
	f.StringArrayVar(&addPDFs, "pdf", nil, "Path of a PDF file (repeatable)")
	f.BoolVar(&addPrivatePDF, "private", false, "Mark uploaded PDF files private")

	sourcesPrivacyCmd.Flags().BoolVar(&privacyPrivate, "private", true, "Mark the sources private (false makes them public)")

	for _, c := range []*cobra.Command{crawlStartCmd, crawlStatusCmd} {
		c.Flags().BoolVarP(&crawlWatch, "watch", "w", false, "Wait until the crawl finishes")
		c.Flags().DurationVar(&crawlInterval, "interval", 2*time.Second, "Polling interval with --watch")
	}

	sourcesCmd.AddCommand(sourcesListCmd, sourcesAddCmd, sourcesDeleteCmd, sourcesReindexCmd, sourcesPrivacyCmd)
	sitemapCmd.AddCommand(sitemapParseCmd, sitemapRawCmd)
	crawlCmd.AddCommand(crawlStartCmd, crawlStopCmd, crawlStatusCmd)
	rootCmd.AddCommand(sourcesCmd, sitemapCmd, jiraCmd, confluenceCmd, zendeskCmd, crawlCmd, youtubeCmd)
}
