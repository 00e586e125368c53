package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/engine/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the sea-route distance cache"}
	cmd.AddCommand(newCacheStatsCmd(a), newCacheClearCmd(a))
	return cmd
}

func (a *app) openCache() (*cache.FileStore, error) {
	ttl := a.cfg.Cache.TTLSeconds
	if ttl < cache.MinTTLSeconds {
		ttl = cache.DefaultTTLSeconds
	}
	st, err := cache.NewFileStore(a.cfg.Cache.Directory, true, ttl)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return st, nil
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openCache()
			if err != nil {
				return err
			}
			n, err := st.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Directory: %s\n", st.Directory())
			cmd.Printf("Enabled: %t\n", a.cfg.Cache.Enabled)
			cmd.Printf("TTL: %ds\n", a.cfg.Cache.TTLSeconds)
			cmd.Printf("Entries: %d\n", n)
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	var expiredOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached sea-route distances",
		Example: `  # Remove everything
  medcarbon cache clear

  # Remove only expired entries
  medcarbon cache clear --expired`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openCache()
			if err != nil {
				return err
			}
			n, err := st.Clear(expiredOnly)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d cache entries\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "remove only expired entries")
	return cmd
}
