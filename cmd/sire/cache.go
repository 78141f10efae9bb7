package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sire/internal/tracecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the structured trace cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached structured trace",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := cacheDir(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}

func cacheDir(cmd *cobra.Command) (string, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return "", err
	}
	if s.cfg.Cache.Dir != "" {
		return s.cfg.Cache.Dir, nil
	}
	return tracecache.DefaultDir()
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	dir, err := cacheDir(cmd)
	if err != nil {
		return err
	}
	c, err := tracecache.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open cache %q: %w", dir, err)
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to clean cache %q: %w", dir, err)
	}
	warnf(cmd, "removed %s", dir)
	return nil
}
