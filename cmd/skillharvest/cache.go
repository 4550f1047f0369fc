package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillharvest/pkg/presenter"
	"github.com/jingkaihe/skillharvest/pkg/vcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the verdict cache",
	Long:  `Commands for inspecting and clearing the on-disk classification verdict cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show verdict cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, dir, err := openCacheStore(cmd)
		if err != nil {
			return err
		}

		entries, bytes, err := store.Stats()
		if err != nil {
			return err
		}

		presenter.Section("Verdict cache")
		presenter.Info("Directory: " + dir)
		presenter.Info(fmt.Sprintf("Entries:   %d", entries))
		presenter.Info(fmt.Sprintf("Size:      %d bytes", bytes))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, dir, err := openCacheStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		presenter.Success("Cleared verdict cache at " + dir)
		return nil
	},
}

func openCacheStore(cmd *cobra.Command) (*vcache.DirStore, string, error) {
	dir, _ := cmd.Flags().GetString("cache-dir")
	if dir == "" {
		var err error
		if dir, err = vcache.DefaultDir(); err != nil {
			return nil, "", errors.Wrap(err, "failed to resolve cache directory")
		}
	}
	store, err := vcache.NewDirStore(dir)
	if err != nil {
		return nil, "", err
	}
	return store, dir, nil
}

func init() {
	for _, cmd := range []*cobra.Command{cacheStatsCmd, cacheClearCmd} {
		cmd.Flags().String("cache-dir", "", "Verdict cache directory (default ~/.cache/skillharvest/verdicts)")
	}
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
