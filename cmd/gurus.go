package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gurubase/gurubase-cli/internal"
)

var (
	sidebarActive string
	sidebarFilter string
	sidebarWidth  int
	sidebarMobile bool
	sidebarRows   int

	statusConcurrency int

	guruName            string
	guruDomainKnowledge string
	guruIcon            string
	guruFields          []string

	requestForm internal.GuruCreationForm
)

var gurusCmd = &cobra.Command{
	Use:     "gurus",
	Aliases: []string{"guru"},
	Short:   "Browse and manage gurus",
}

var gurusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active gurus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.GuruTypes(ctx), printGurus)
		})
	},
}

var gurusShowCmd = &cobra.Command{
	Use:   "show <guru>",
	Short: "Show one guru",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.GuruType(ctx, args[0]), printObject)
		})
	},
}

var gurusStatusCmd = &cobra.Command{
	Use:   "status [guru...]",
	Short: "Check whether gurus finished indexing",
	Long: `Check the readiness of the given gurus, or of every listed guru when none
are given. Checks run concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			slugs := args
			if len(slugs) == 0 {
				gurus, ok := a.catalog.GuruTypes(ctx).Unwrap()
				if !ok {
					return fmt.Errorf("failed to list gurus")
				}
				for _, g := range gurus {
					slugs = append(slugs, g.Slug)
				}
			}

			ready, err := checkReadiness(ctx, a.catalog, slugs, statusConcurrency)
			if err != nil {
				return err
			}
			if outputFormat != "" {
				return exportValue(cmd.OutOrStdout(), ready)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, slug := range slugs {
				state := "indexing"
				if ready[slug] {
					state = "ready"
				}
				fmt.Fprintf(tw, "%s\t%s\n", slug, state)
			}
			return tw.Flush()
		})
	},
}

// checkReadiness polls every slug with at most limit requests in flight.
func checkReadiness(ctx context.Context, cat *internal.Catalog, slugs []string, limit int) (map[string]bool, error) {
	results := make([]bool, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			results[i] = cat.CheckGuruReadiness(gctx, slug)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(slugs))
	for i, slug := range slugs {
		out[slug] = results[i]
	}
	return out, nil
}

var gurusMineCmd = &cobra.Command{
	Use:   "mine [guru]",
	Short: "List the gurus you maintain, or show one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if len(args) == 1 {
				return render(cmd, a.catalog.MyGuru(ctx, args[0]), printObject)
			}
			return render(cmd, a.catalog.MyGurus(ctx), func(w io.Writer, gurus []internal.Object) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				for _, g := range gurus {
					fmt.Fprintf(tw, "%v\t%v\n", g["slug"], g["name"])
				}
				return tw.Flush()
			})
		})
	},
}

var gurusSidebarCmd = &cobra.Command{
	Use:   "sidebar",
	Short: "Render the guru navigation sidebar",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.GuruTypes(ctx), func(w io.Writer, gurus []internal.GuruType) error {
				s := &internal.Sidebar{
					Gurus:      gurus,
					ActiveSlug: sidebarActive,
					Filter:     sidebarFilter,
					Width:      sidebarWidth,
					IsMobile:   sidebarMobile,
					SelfHosted: a.cfg.SelfHosted,
					MaxRows:    sidebarRows,
				}
				return s.Render(w)
			})
		})
	},
}

var gurusCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a guru",
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := guruForm()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CreateGuru(ctx, form), printObject)
		})
	},
}

var gurusUpdateCmd = &cobra.Command{
	Use:   "update <guru>",
	Short: "Update a guru's settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := guruForm()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.UpdateGuru(ctx, args[0], form), printObject)
		})
	},
}

var gurusDeleteCmd = &cobra.Command{
	Use:   "delete <guru>",
	Short: "Delete a guru",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DeleteGuru(ctx, args[0]), done("Guru deleted"))
		})
	},
}

var gurusRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a new guru from the Gurubase team",
	RunE: func(cmd *cobra.Command, args []string) error {
		if requestForm.Email == "" {
			return fmt.Errorf("--email is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			form := requestForm
			if form.Source == "" {
				form.Source = "cli"
			}
			return render(cmd, a.catalog.SubmitGuruCreationForm(ctx, form), done("Request submitted"))
		})
	},
}

func guruForm() (*internal.FormData, error) {
	form := internal.NewFormData()
	if guruName != "" {
		form.Set("name", guruName)
	}
	if guruDomainKnowledge != "" {
		form.Set("domain_knowledge", guruDomainKnowledge)
	}
	for _, kv := range guruFields {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --field %q, want key=value", kv)
		}
		form.Set(k, val)
	}
	if guruIcon != "" {
		if err := form.AddFilePath("icon_image", guruIcon); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func printGurus(w io.Writer, gurus []internal.GuruType) error {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Gurus (%s)", countStyle.Render(fmt.Sprint(len(gurus))))))
	for _, g := range gurus {
		fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(g.Name), slugStyle.Render(g.Slug))
	}
	return nil
}

func printObject(w io.Writer, obj internal.Object) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%v\n", k, obj[k])
	}
	return tw.Flush()
}

func init() {
	gurusSidebarCmd.Flags().StringVar(&sidebarActive, "active", "", "Slug of the active guru")
	gurusSidebarCmd.Flags().StringVar(&sidebarFilter, "search", "", "Filter gurus by name")
	gurusSidebarCmd.Flags().IntVar(&sidebarWidth, "width", 1024, "Viewport width")
	gurusSidebarCmd.Flags().BoolVar(&sidebarMobile, "mobile", false, "Render the mobile instance")
	gurusSidebarCmd.Flags().IntVar(&sidebarRows, "max", 0, "Show at most this many gurus (0 = all)")

	gurusStatusCmd.Flags().IntVar(&statusConcurrency, "concurrency", 4, "Maximum concurrent readiness checks")

	for _, c := range []*cobra.Command{gurusCreateCmd, gurusUpdateCmd} {
		c.Flags().StringVar(&guruName, "name", "", "Guru name")
		c.Flags().StringVar(&guruDomainKnowledge, "domain-knowledge", "", "What the guru knows about")
		c.Flags().StringVar(&guruIcon, "icon", "", "Path of the guru icon image")
		c.Flags().StringArrayVar(&guruFields, "field", nil, "Extra form field as key=value (repeatable)")
	}

	gurusRequestCmd.Flags().StringVar(&requestForm.Name, "name", "", "Your name")
	gurusRequestCmd.Flags().StringVar(&requestForm.Email, "email", "", "Your email")
	gurusRequestCmd.Flags().StringVar(&requestForm.GithubRepo, "github-repo", "", "GitHub repository of the project")
	gurusRequestCmd.Flags().StringVar(&requestForm.DocsURL, "docs-url", "", "Documentation URL of the project")
	gurusRequestCmd.Flags().StringVar(&requestForm.UseCase, "use-case", "", "What you want to use the guru for")
	gurusRequestCmd.Flags().StringVar(&requestForm.Source, "source", "", "Where the request comes from")

	gurusCmd.AddCommand(gurusListCmd, gurusShowCmd, gurusStatusCmd, gurusMineCmd, gurusSidebarCmd,
		gurusCreateCmd, gurusUpdateCmd, gurusDeleteCmd, gurusRequestCmd)
	rootCmd.AddCommand(gurusCmd)
}

