package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
	"github.com/gurubase/gurubase-cli/internal/export"
)

var (
	askBingeID    string
	askParentSlug string
	askFollowUps  bool
	askRaw        bool

	examplesBingeID string
	examplesText    string

	historyPage   int
	historySearch string
)

var askCmd = &cobra.Command{
	Use:   "ask <guru> <question>",
	Short: "Ask a guru a question",
	Long: `Ask a guru a question and print its answer.

The backend first validates the question and picks a slug for it, then the
answer is fetched. Inside a binge, pass --binge and the slug of the question
being followed up with --parent.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		guru := args[0]
		question := strings.Join(args[1:], " ")

		return withApp(cmd, func(ctx context.Context, a *app) error {
			var summary *internal.Summary
			err := internal.ShowProgress(ctx, fmt.Sprintf("Asking %s...", guru), func() error {
				r := a.catalog.Summary(ctx, guru, internal.SummaryRequest{
					Question:           question,
					BingeID:            askBingeID,
					ParentQuestionSlug: askParentSlug,
				})
				var err error
				summary, err = resultValue(r)
				return err
			})
			if err != nil {
				return err
			}
			if summary == nil {
				return fmt.Errorf("%s returned no answer", guru)
			}
			if !summary.ValidQuestion {
				msg := summary.Description
				if msg == "" {
					msg = "the guru cannot answer this question"
				}
				return fmt.Errorf("%s", msg)
			}

			var detail *internal.QuestionDetail
			err = internal.ShowProgress(ctx, "Fetching answer...", func() error {
				d, err := resultValue(a.catalog.QuestionDetails(ctx, guru, summary.QuestionSlug, askBingeID, question))
				if err != nil {
					return err
				}
				if d == nil {
					return fmt.Errorf("answer for %q is not available", summary.QuestionSlug)
				}
				detail = d
				return nil
			})
			if err != nil {
				return err
			}
			if err := printQuestion(cmd.OutOrStdout(), detail); err != nil {
				return err
			}

			if askFollowUps && outputFormat == "" {
				suggestions := a.catalog.ExampleQuestions(ctx, guru, internal.ExampleQuestionsRequest{
					BingeID:      askBingeID,
					QuestionSlug: detail.Slug,
					QuestionText: question,
				})
				printSuggestions(cmd.OutOrStdout(), suggestions)
			}
			return nil
		})
	},
}

// printQuestion renders an answer as markdown, styled when w is a terminal.
func printQuestion(w io.Writer, d *internal.QuestionDetail) error {
	if outputFormat != "" {
		return exportValue(w, d)
	}
	if d == nil {
		_, err := fmt.Fprintln(w, "No data.")
		return err
	}

	md, err := questionMarkdown(d)
	if err != nil {
		return err
	}
	if askRaw || !internal.IsTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	styled, err := glamour.Render(md, "dark")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, styled)
	return err
}

func questionMarkdown(d *internal.QuestionDetail) (string, error) {
	var b strings.Builder
	if err := (&export.MarkdownExporter{}).Export(d, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func printSuggestions(w io.Writer, suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("You might also ask"))
	for _, s := range suggestions {
		fmt.Fprintf(w, "  • %s\n", s)
	}
}

var questionCmd = &cobra.Command{
	Use:   "question <guru> <slug>",
	Short: "Show an answered question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			r := a.catalog.QuestionDetails(ctx, args[0], args[1], askBingeID, "")
			return render(cmd, r, printQuestion)
		})
	},
}

var defaultQuestionsCmd = &cobra.Command{
	Use:   "default-questions <guru>",
	Short: "List a guru's featured questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.DefaultQuestions(ctx, args[0]), func(w io.Writer, qs []internal.DefaultQuestion) error {
				for _, q := range qs {
					fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(q.Question), slugStyle.Render(q.Slug))
				}
				return nil
			})
		})
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources <guru>",
	Short: "List the public resources a guru was built from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.GuruResources(ctx, args[0]), nil)
		})
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples <guru> <question-slug>",
	Short: "Suggest follow-up questions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			suggestions := a.catalog.ExampleQuestions(ctx, args[0], internal.ExampleQuestionsRequest{
				BingeID:      examplesBingeID,
				QuestionSlug: args[1],
				QuestionText: examplesText,
			})
			if outputFormat != "" {
				return exportValue(cmd.OutOrStdout(), suggestions)
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		})
	},
}

var bingeCmd = &cobra.Command{
	Use:   "binge",
	Short: "Work with binges (threads of follow-up questions)",
}

var bingeCreateCmd = &cobra.Command{
	Use:   "create <guru> <root-question-slug>",
	Short: "Start a binge from an answered question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			id := a.catalog.CreateBinge(ctx, args[0], args[1])
			if id == "" {
				return fmt.Errorf("failed to create binge")
			}
			if outputFormat != "" {
				return exportValue(cmd.OutOrStdout(), map[string]string{"id": id})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		})
	},
}

var bingeShowCmd = &cobra.Command{
	Use:   "show <guru> <binge-id>",
	Short: "Show a binge's question tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.BingeData(ctx, args[0], args[1]), nil)
		})
	},
}

var bingeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past binges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.BingeHistory(ctx, historyPage, historySearch), nil)
		})
	},
}

func init() {
	askCmd.Flags().StringVar(&askBingeID, "binge", "", "Binge the question belongs to")
	askCmd.Flags().StringVar(&askParentSlug, "parent", "", "Slug of the question being followed up")
	askCmd.Flags().BoolVar(&askFollowUps, "suggest", false, "Also print suggested follow-up questions")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the answer as plain markdown")

	questionCmd.Flags().StringVar(&askBingeID, "binge", "", "Binge the question belongs to")
	questionCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the answer as plain markdown")

	examplesCmd.Flags().StringVar(&examplesBingeID, "binge", "", "Binge the question belongs to")
	examplesCmd.Flags().StringVar(&examplesText, "text", "", "Text of the question")

	bingeHistoryCmd.Flags().IntVar(&historyPage, "page", 1, "Page number")
	bingeHistoryCmd.Flags().StringVar(&historySearch, "search", "", "Only binges matching this text")

	bingeCmd.AddCommand(bingeCreateCmd, bingeShowCmd, bingeHistoryCmd)
	rootCmd.AddCommand(askCmd, questionCmd, defaultQuestionsCmd, resourcesCmd, examplesCmd, bingeCmd)
}
