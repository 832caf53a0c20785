package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/middrag/middrag/internal/autostart"
	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/daemon"
	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/feedback"
	"github.com/middrag/middrag/internal/gesture"
	"github.com/middrag/middrag/internal/logging"
	"github.com/middrag/middrag/internal/service"
	"github.com/middrag/middrag/internal/web"
	"github.com/middrag/middrag/pkg/desktop"
	"github.com/middrag/middrag/pkg/detector"
)

const stopTimeout = 10 * time.Second

var (
	withWeb bool
	webPort int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start middrag in the background",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return detach(cmd, withWeb)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start middrag in the background with the web API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return detach(cmd, true)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run middrag in the foreground",
	Long: `Runs middrag attached to the terminal until interrupted. This is the
command the login entry starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return runInstance(cmd, store, withWeb)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background instance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		p := printer(store.Config())
		dm := daemon.New(store.Config().Daemon.PIDFile)

		running, pid, err := dm.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if !running {
			fmt.Fprintln(cmd.OutOrStdout(), p.Sprintf("Status: not running"))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), p.Sprintf("Stopping (PID %d)...", pid))
		if err := dm.Stop(stopTimeout); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Sprintf("Stopped"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)

	for _, c := range []*cobra.Command{startCmd, runCmd} {
		c.Flags().BoolVar(&withWeb, "web", false, "serve the web API and live feedback")
	}
	for _, c := range []*cobra.Command{startCmd, serveCmd, runCmd} {
		c.Flags().IntVarP(&webPort, "port", "p", 0, "web API port (overrides config)")
	}
}

// detach re-runs the current command in the background. The child runs the instance.
func detach(cmd *cobra.Command, serveWeb bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	cfg := store.Config()
	p := printer(cfg)

	if !daemon.IsChild() {
		running, pid, err := daemon.New(cfg.Daemon.PIDFile).IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if running {
			return fmt.Errorf("%w (PID %d)", daemon.ErrAlreadyRunning, pid)
		}
	}

	child, err := daemon.Detach()
	if err != nil {
		return err
	}
	if child != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, p.Sprintf("Started in background (PID %d)", child.Pid))
		if serveWeb {
			fmt.Fprintf(out, "Web API: http://%s\n", webAddress(cfg.Web))
		}
		fmt.Fprintln(out, p.Sprintf("Logs: %s", cfg.Log.File))
		return nil
	}

	return runInstance(cmd, store, serveWeb)
}

// runInstance owns the process until SIGINT or SIGTERM.
func runInstance(cmd *cobra.Command, store *config.Store, serveWeb bool) error {
	cfg := store.Config()
	p := printer(cfg)

	lock, err := daemon.AcquireLock(cfg.Daemon.LockFile)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Fprintln(cmd.ErrOrStderr(), p.Sprintf("Already running, exiting."))
		}
		return err
	}
	defer lock.Release()

	logCloser, err := logging.Setup(cfg.Log, daemon.IsChild())
	if err != nil {
		return err
	}
	defer logCloser.Close()
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer dm.RemovePID()

	var repo *database.Repository
	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			return err
		}
		repo = database.NewRepository(db)
	}

	backend, err := detector.New(func() desktop.Commands { return store.Config().Commands() })
	if err != nil {
		return fmt.Errorf("failed to open desktop backend: %w", err)
	}
	defer backend.Close()
	log.Infof("Desktop backend initialized: %s", backend.DisplayServer)

	var starter autostart.Manager
	if exe, err := os.Executable(); err != nil {
		log.Warnf("Launch at login unavailable: %v", err)
	} else if m, err := autostart.New([]string{exe, "run"}); err != nil {
		log.Warnf("Launch at login unavailable: %v", err)
	} else {
		starter = m
	}

	var hub *feedback.Hub
	var fb gesture.Feedback
	if serveWeb {
		hub = feedback.NewHub(false)
		defer hub.Close()
		fb = hub
	}

	svc := service.New(service.Options{
		Store:         store,
		Tapper:        backend.Tapper,
		Workspace:     backend.Workspace,
		Actions:       backend.Actions,
		DisplayServer: backend.DisplayServer,
		Repo:          repo,
		Feedback:      fb,
		Autostart:     starter,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if serveWeb {
		srv := web.NewServer(cfg.Web, web.NewHandler(store, repo, svc, hub), webPort)
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Web server error: %v", err)
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Errorf("Error shutting down web server: %v", err)
			}
		}()
		log.Infof("Web API available at: http://%s", srv.GetAddress())
	}

	log.WithField("run_id", svc.RunID()).Info("Starting middrag")
	log.Debugf("Configuration:\n%s", cfg.String())

	err = svc.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("middrag stopped")
	return nil
}

func webAddress(cfg config.WebConfig) string {
	port := cfg.Port
	if webPort > 0 {
		port = webPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}
