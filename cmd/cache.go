package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alde/trombinoscope/internal/config"
	"github.com/alde/trombinoscope/pkg/cache"
	"github.com/alde/trombinoscope/pkg/codec"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the transformed image cache",
	Long: `The cache holds every cropped and downsampled image a poster run produced,
keyed by file name, crop rectangle and resolution ceiling.

Entries are never invalidated: clear the cache after replacing an image by
another one with the same name.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the number and size of cached images",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached image",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)

	cacheCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", config.Default().CacheDir, "Directory of the transformed image cache")
}

func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("%w: the cache is disabled", config.ErrInvalid)
	}
	return cache.New(cfg.CacheDir, codec.New()), nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}

	stats, err := c.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Directory: %s\n", c.Dir)
	fmt.Fprintf(out, "Entries:   %s\n", humanize.Comma(int64(stats.Entries)))
	fmt.Fprintf(out, "Size:      %s\n", humanize.Bytes(uint64(stats.Bytes)))
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}

	removed, err := c.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cached image(s) from %s\n", humanize.Comma(int64(removed)), c.Dir)
	return nil
}
