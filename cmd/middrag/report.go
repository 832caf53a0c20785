package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/reporter"
)

var (
	reportJSON bool
	clearYes   bool
)

var reportCmd = &cobra.Command{
	Use:       "report [day|week|month]",
	Short:     "Summarize recorded gestures",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"day", "today", "week", "month"},
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := "day"
		if len(args) > 0 {
			periodType = args[0]
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		rep := reporter.New(repo)
		report, err := rep.GenerateReport(periodType)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if reportJSON {
			return printJSON(cmd.OutOrStdout(), report)
		}
		fmt.Fprint(cmd.OutOrStdout(), rep.FormatReportText(report))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded gestures and errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			fmt.Fprint(cmd.OutOrStdout(), "This will delete all recorded gestures. Are you sure? (yes/no): ")
			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "yes" && response != "y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
				return nil
			}
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repo.Clear(); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database cleared successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(clearCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")
}

func openRepository() (*database.Repository, func(), error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(store.Config().Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return database.NewRepository(db), func() { db.Close() }, nil
}
