package main

import (
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/i18n"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "middrag",
	Short: "Middle-button drag gestures for the desktop",
	Long: `middrag watches middle-button drags and maps left, right, up and down
to actions: stepping back and forth through recently used apps, or opening
system surfaces such as Mission Control or the desktop.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/middrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.SetVersionTemplate(fmt.Sprintf("middrag version {{.Version}}\n  commit: %s\n  built:  %s\n", commit, date))
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// openStore loads the config named by --config, or the default one.
func openStore() (*config.Store, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	store, err := config.Open(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	return store, nil
}

func printer(cfg *config.Config) *message.Printer {
	return i18n.NewPrinter(config.ResolveLanguage(cfg.Gesture.Language))
}

func printJSON(w io.Writer, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
