package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the local response cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the response cache holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(rc *internal.ResponseCache) error {
			index, err := rc.LoadIndex()
			if os.IsNotExist(err) {
				index, err = &internal.CacheIndex{}, nil
			}
			if err != nil {
				return err
			}
			if outputFormat != "" {
				return exportValue(cmd.OutOrStdout(), index)
			}
			now := time.Now()
			expired := 0
			for _, e := range index.Entries {
				if now.After(e.ExpiresAt) {
					expired++
				}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Directory: %s\n", rc.GetCacheDir())
			fmt.Fprintf(w, "Entries:   %s (%d expired)\n", countStyle.Render(fmt.Sprint(len(index.Entries))), expired)
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(rc *internal.ResponseCache) error {
			n, err := rc.Prune()
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Removed %d expired entries", n))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(rc *internal.ResponseCache) error {
			if err := rc.ClearCache(); err != nil {
				return err
			}
			internal.PrintSuccess("Cache cleared")
			return nil
		})
	},
}

// withCache opens the cache even when --no-cache turned it off for requests.
func withCache(cmd *cobra.Command, fn func(rc *internal.ResponseCache) error) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		rc := a.cache
		if rc == nil {
			if a.cfg.CacheDir == "" {
				return fmt.Errorf("no cache directory configured")
			}
			rc = internal.NewResponseCache(a.cfg.CacheDir)
		}
		return fn(rc)
	})
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
