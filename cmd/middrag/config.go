package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/middrag/middrag/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change settings. Changes are written to the config file and
picked up by a running instance without a restart.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		cfg := store.Config()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "# %s\n", store.Path())
		for _, key := range config.Keys() {
			value, err := cfg.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-16s = %s\n", key, value)
		}
		fmt.Fprintln(out)
		printMapping(out, printer(cfg), cfg)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		value, err := store.Config().Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Example: `  middrag config set drag_up app-expose
  middrag config set threshold 120
  middrag config set launch_at_login true`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Update(func(c *config.Config) error {
			return c.Set(args[0], args[1])
		}); err != nil {
			return err
		}

		value, _ := store.Config().Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
