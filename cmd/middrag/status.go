package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/daemon"
	"github.com/middrag/middrag/internal/gesture"
	"github.com/middrag/middrag/internal/i18n"
	"github.com/middrag/middrag/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether middrag runs and how gestures are mapped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		cfg := store.Config()
		p := printer(cfg)
		out := cmd.OutOrStdout()

		running, pid, err := daemon.New(cfg.Daemon.PIDFile).IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if running {
			fmt.Fprintln(out, p.Sprintf("Status: running (PID %d)", pid))
			if st, ok := fetchStatus(cfg.Web); ok {
				printLiveStatus(out, p, st)
			}
		} else {
			fmt.Fprintln(out, p.Sprintf("Status: not running"))
		}

		fmt.Fprintln(out)
		printMapping(out, p, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printMapping(out io.Writer, p *message.Printer, cfg *config.Config) {
	for _, dir := range []gesture.Direction{gesture.Left, gesture.Right, gesture.Up, gesture.Down} {
		action := gesture.ActionFor(cfg.Gesture, dir)
		fmt.Fprintf(out, "  %-16s %s\n", i18n.DirectionLabel(p, dir.String()), i18n.ActionLabel(p, action))
	}
	fmt.Fprintln(out, p.Sprintf("Minimum drag: %.0f px", cfg.Gesture.Threshold))
	fmt.Fprintln(out, p.Sprintf("Trigger button: %s", cfg.Gesture.TriggerButton))
	fmt.Fprintln(out, p.Sprintf("Launch at login: %v", cfg.Gesture.LaunchAtLogin))
}

// liveStatus is the part of /api/status the CLI prints.
type liveStatus struct {
	Uptime        string      `json:"uptime"`
	EngineRunning bool        `json:"engine_running"`
	DisplayServer string      `json:"display_server"`
	LatestEvent   *liveEvent  `json:"latest_event"`
	History       liveHistory `json:"history"`
}

type liveEvent struct {
	Direction string    `json:"direction"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

type liveHistory struct {
	Apps []struct {
		Name string `json:"name"`
	} `json:"history"`
	Cursor int `json:"cursor"`
}

// fetchStatus asks a running instance that serves the web API for its state.
func fetchStatus(cfg config.WebConfig) (*liveStatus, bool) {
	client := http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + webAddress(cfg) + "/api/status")
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var st liveStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, false
	}
	return &st, true
}

func printLiveStatus(out io.Writer, p *message.Printer, st *liveStatus) {
	state := p.Sprintf("running")
	if !st.EngineRunning {
		state = p.Sprintf("waiting for input permission")
	}
	fmt.Fprintln(out, p.Sprintf("Gesture engine: %s", state))
	fmt.Fprintf(out, "Display: %s, up %s\n", st.DisplayServer, st.Uptime)
	if e := st.LatestEvent; e != nil {
		fmt.Fprintf(out, "Last gesture: %s -> %s (%s, %s ago)\n",
			e.Direction, e.Action, e.Outcome, utils.FormatRoundedUnit(time.Since(e.Timestamp)))
	}
	for i, e := range st.History.Apps {
		marker := " "
		if i == st.History.Cursor {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, e.Name)
	}
}
