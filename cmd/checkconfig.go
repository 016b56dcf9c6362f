package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kestrel-net/kestrel/internal/config"
)

// checkconfigCmd loads and validates the configuration, then prints the
// effective values with every default filled in.
var checkconfigCmd = &cobra.Command{
	Use:   "checkconfig",
	Short: "Validate the configuration and print the effective values",
	Long: `Load the configuration (file, environment, defaults), run validation,
and print the resulting effective configuration as YAML.

Examples:
  kestrel checkconfig                  # defaults and environment only
  kestrel checkconfig -c kestrel.yml   # validate a config file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK\n---\n%s", out)
		return nil
	},
}
