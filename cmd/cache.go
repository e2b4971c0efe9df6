package cmd

import (
	"fmt"
	"time"

	"github.com/naka-gawa/repo-details/internal/cache"
	"github.com/naka-gawa/repo-details/internal/config"
	"github.com/naka-gawa/repo-details/internal/view"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// cacheReport is what `cache show` prints.
type cacheReport struct {
	Key      string          `yaml:"key"`
	Age      string          `yaml:"age"`
	Expired  bool            `yaml:"expired"`
	Envelope *cache.Envelope `yaml:"entry"`
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached repository details",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cached entry as YAML",
		RunE:  runCacheShow,
	}, &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached entry",
		RunE:  runCacheClear,
	})
	return cacheCmd
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := newLogger(cmd, cfg)

	s, err := openStorage(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	client := newCacheClient(s, cfg, logger)
	env, err := client.Peek(ctx)
	if err != nil {
		return err
	}
	if env == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing cached.")
		return nil
	}

	age := env.Age(client.Now())
	out, err := yaml.Marshal(cacheReport{
		Key:      cache.Key,
		Age:      age.Truncate(time.Second).String(),
		Expired:  age > cache.DefaultMaxAge,
		Envelope: env,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := newLogger(cmd, cfg)

	s, err := openStorage(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := newCacheClient(s, cfg, logger).Remove(ctx); err != nil {
		return err
	}
	view.NewTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr()).ShowToast(view.Toast{
		Style: view.ToastSuccess,
		Title: "Cache cleared",
	})
	return nil
}
