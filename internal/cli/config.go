package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fauxterm/internal/client"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the client configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return printConfig(cmd, cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), opts.configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <json-merge-patch>",
		Short: "Merge a JSON patch into the config file",
		Long: `Merge a JSON merge patch (RFC 7386) into the config file and save it.
Keys use the file's names; null restores a key's default.`,
		Example: `  fauxctl config set '{"theme": "light", "maxHistoryLength": 50}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := client.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Patch([]byte(args[0])); err != nil {
				return err
			}
			if err := saveConfig(opts.configPath, cfg); err != nil {
				return err
			}
			return printConfig(cmd, cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Overwrite the config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// a broken file is exactly what reset is for
			cfg, err := client.LoadConfig(opts.configPath)
			if err != nil {
				cfg = client.DefaultConfig()
			}
			cfg.Reset()
			if err := saveConfig(opts.configPath, cfg); err != nil {
				return err
			}
			return printConfig(cmd, cfg)
		},
	})
	return cmd
}

func printConfig(cmd *cobra.Command, cfg *client.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// saveConfig writes cfg as YAML, creating the parent directory.
func saveConfig(path string, cfg *client.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
