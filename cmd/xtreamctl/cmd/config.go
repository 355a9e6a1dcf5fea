package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xtreamctl/xtreamctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing xtreamctl configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  xtreamctl config dump > .xtreamctl.yaml

Configuration can be set via:
  - Config file (.xtreamctl.yaml in home, cwd, or /etc/xtreamctl)
  - Environment variables (XTREAMCTL_PROVIDER_SERVER, XTREAMCTL_CACHE_DIR, ...)
  - Command-line flags

Environment variables use the XTREAMCTL_ prefix and underscores for nesting.
Example: provider.server -> XTREAMCTL_PROVIDER_SERVER`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
