package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xtreamctl/xtreamctl/internal/archive"
	"github.com/xtreamctl/xtreamctl/internal/config"
	"github.com/xtreamctl/xtreamctl/internal/observability"
	"github.com/xtreamctl/xtreamctl/pkg/httpclient"
	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// archiveCmd snapshots the provider catalogs and EPG to disk.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Snapshot provider catalogs and EPG to timestamped directories",
	Long: `Download the provider's account info, live/VOD/series catalogs and full
XMLTV EPG into <savedir>/<server>/<timestamp>/. The save directory must
already exist. Failed endpoints are retried with the configured backoff and
skipped if they keep failing; the snapshot continues with the rest.

By default the stored account payload is anonymized (username, password and
the first label of the reported server URL are masked) and JSON/XML payloads
are pretty-printed.`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().String("savedir", "", "directory to save the retrieved files (must exist)")
	archiveCmd.Flags().Int("retries", 0, "number of retries per endpoint")
	archiveCmd.Flags().Int("prune", 0, "keep only the most recent N snapshots")
	archiveCmd.Flags().Bool("saveraw", false, "keep username/password in user_info.json")
	archiveCmd.Flags().Bool("format", true, "pretty-print JSON and XML payloads")

	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyArchiveFlags(cmd, cfg)

	if err := cfg.ValidateArchive(); err != nil {
		return err
	}

	logger := observability.WithComponent(slog.Default(), "archive")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Archive mode retries transient failures per endpoint.
	hc := httpclient.New(httpclient.Config{
		Timeout:             cfg.Provider.Timeout,
		RetryAttempts:       cfg.Archive.Retries,
		RetryDelay:          cfg.Archive.RetryDelay,
		RetryMaxDelay:       cfg.Archive.RetryDelay,
		UserAgent:           cfg.Provider.UserAgent,
		Logger:              logger,
		EnableDecompression: true,
	})

	client := xtream.NewClient(
		cfg.Provider.BaseURL(),
		cfg.Provider.Username,
		cfg.Provider.Password,
		xtream.WithHTTPClient(hc.StandardClient()),
		xtream.WithUserAgent(cfg.Provider.UserAgent),
	)

	archiver := archive.New(archive.Options{
		Client:  client,
		SaveDir: cfg.Archive.SaveDir,
		Server:  cfg.Provider.Server,
		Prune:   cfg.Archive.Prune,
		SaveRaw: cfg.Archive.SaveRaw,
		Format:  cfg.Archive.Format,
		Logger:  logger,
	})

	dir, err := archiver.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("snapshot complete", slog.String("dir", dir))
	return nil
}

// applyArchiveFlags overrides config values with explicitly set flags.
func applyArchiveFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("savedir") {
		cfg.Archive.SaveDir, _ = flags.GetString("savedir")
	}
	if flags.Changed("retries") {
		cfg.Archive.Retries, _ = flags.GetInt("retries")
	}
	if flags.Changed("prune") {
		cfg.Archive.Prune, _ = flags.GetInt("prune")
	}
	if flags.Changed("saveraw") {
		cfg.Archive.SaveRaw, _ = flags.GetBool("saveraw")
	}
	if flags.Changed("format") {
		cfg.Archive.Format, _ = flags.GetBool("format")
	}
}
