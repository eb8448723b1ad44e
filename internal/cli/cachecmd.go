package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowgrid/flowgrid/pkg/errors"
)

// newCacheCmd creates the cache command for managing rendered artifacts.
func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered-artifact cache",
	}
	cmd.AddCommand(newCacheInfoCmd(configPath))
	cmd.AddCommand(newCacheClearCmd(configPath))
	return cmd
}

func newCacheInfoCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			dir, err := cfg.Cache.cacheDir()
			if err != nil {
				return err
			}

			entries, size := cacheUsage(dir)
			printKeyValue("Location", dir)
			printKeyValue("Artifacts", fmt.Sprintf("%d", entries))
			printKeyValue("Size", formatBytes(size))
			if !cfg.Cache.Enabled {
				printWarning("Caching is disabled in the configuration")
			}
			return nil
		},
	}
}

func newCacheClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			dir, err := cfg.Cache.cacheDir()
			if err != nil {
				return err
			}

			entries, size := cacheUsage(dir)
			if entries == 0 {
				printInfo("Cache is already empty")
				return nil
			}
			if err := os.RemoveAll(dir); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "clear cache dir")
			}
			printSuccess("Removed %d artifacts (%s)", entries, formatBytes(size))
			printDetail("%s", dir)
			return nil
		},
	}
}

// cacheUsage walks the cache directory counting files and bytes. A missing
// directory is an empty cache.
func cacheUsage(dir string) (entries int, size int64) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		entries++
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return entries, size
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
