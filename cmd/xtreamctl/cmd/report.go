package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xtreamctl/xtreamctl/internal/cachestore"
	"github.com/xtreamctl/xtreamctl/internal/config"
	"github.com/xtreamctl/xtreamctl/internal/ffprobe"
	"github.com/xtreamctl/xtreamctl/internal/observability"
	"github.com/xtreamctl/xtreamctl/internal/report"
	"github.com/xtreamctl/xtreamctl/pkg/httpclient"
	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// reportCmd runs the catalog report pipeline.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List channels with optional EPG and stream details",
	Long: `Retrieve the live channel catalog (from the day cache when fresh,
otherwise from the provider), filter it by category and channel name, and
print one row per matching stream. Optionally each row is enriched with the
stream's EPG entry count and with codec, resolution and frame rate details
probed via ffprobe.

Catalog downloads are cached per server for the current calendar date.
Top-level catalog fetches are not retried: a failure aborts the run.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("category", "", "substring to match against category names")
	reportCmd.Flags().String("channel", "", "substring to match against channel names")
	reportCmd.Flags().Bool("epgcheck", false, "count EPG entries for each matching stream")
	reportCmd.Flags().Bool("check", false, "probe each matching stream with ffprobe")
	reportCmd.Flags().String("save", "", "write the report to this CSV file")
	reportCmd.Flags().Bool("nocache", false, "bypass the catalog day cache")
	reportCmd.Flags().String("cachedir", "", "directory for catalog cache files")
	reportCmd.Flags().Int("concurrency", 0, "enrichment worker count (default 1, sequential)")
	reportCmd.Flags().Duration("request-interval", 0, "minimum interval between enrichment requests")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyReportFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.WithComponent(slog.Default(), "report")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prober *ffprobe.Prober
	if cfg.Report.Probe {
		prober, err = ffprobe.NewProber(cfg.FFprobe.Path, cfg.FFprobe.Timeout, logger)
		if err != nil {
			return err
		}
		// Probing was requested; a broken tool must fail before any
		// network traffic.
		if err := prober.Preflight(ctx); err != nil {
			return err
		}
	}

	// Report-mode fetches are not retried: first failure is fatal.
	hc := httpclient.New(httpclient.Config{
		Timeout:             cfg.Provider.Timeout,
		RetryAttempts:       0,
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

	var cache *cachestore.Store
	if !cfg.Cache.Disabled {
		cache = cachestore.New(cfg.Cache.Dir, cachestore.WithLogger(logger))
	}

	assembler := report.NewAssembler(report.Options{
		Client:          client,
		Cache:           cache,
		Server:          cfg.Provider.Host(),
		Prober:          prober,
		Category:        cfg.Report.Category,
		Channel:         cfg.Report.Channel,
		CheckEPG:        cfg.Report.CheckEPG,
		Concurrency:     cfg.Report.Concurrency,
		RequestInterval: cfg.Report.RequestInterval,
		NameWidth:       cfg.Report.NameWidth,
		CategoryWidth:   cfg.Report.CategoryWidth,
		Logger:          logger,
	})

	rows, err := assembler.Run(ctx)
	if err != nil {
		return err
	}

	report.WriteTable(os.Stdout, rows, cfg.Report.NameWidth, cfg.Report.CategoryWidth)

	if cfg.Report.CSVPath != "" {
		if err := report.WriteCSV(cfg.Report.CSVPath, rows); err != nil {
			// The console report already stands; a sink failure is
			// reported but does not fail the run.
			logger.Error("writing CSV failed",
				slog.String("path", cfg.Report.CSVPath),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("report saved", slog.String("path", cfg.Report.CSVPath))
		}
	}

	return nil
}

// applyReportFlags overrides config values with explicitly set flags.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("category") {
		cfg.Report.Category, _ = flags.GetString("category")
	}
	if flags.Changed("channel") {
		cfg.Report.Channel, _ = flags.GetString("channel")
	}
	if flags.Changed("epgcheck") {
		cfg.Report.CheckEPG, _ = flags.GetBool("epgcheck")
	}
	if flags.Changed("check") {
		cfg.Report.Probe, _ = flags.GetBool("check")
	}
	if flags.Changed("save") {
		cfg.Report.CSVPath, _ = flags.GetString("save")
	}
	if flags.Changed("nocache") {
		cfg.Cache.Disabled, _ = flags.GetBool("nocache")
	}
	if flags.Changed("cachedir") {
		cfg.Cache.Dir, _ = flags.GetString("cachedir")
	}
	if flags.Changed("concurrency") {
		cfg.Report.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("request-interval") {
		cfg.Report.RequestInterval, _ = flags.GetDuration("request-interval")
	}
}
