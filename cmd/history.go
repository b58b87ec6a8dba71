package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/floatplanner/apscrape/internal/utils"
	"github.com/floatplanner/apscrape/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent recorded runs (default 50), or the points of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		db, err := openHistory(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			return printRun(cmd, db, args[0])
		}

		river, _ := cmd.Flags().GetString("river")
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(cmd.Context(), storage.ListOptions{RiverSlug: river, Limit: limit})
		if err != nil {
			return err
		}
		for _, r := range runs {
			ts := r.StartedAt.Local().Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %s  %-14s scraped=%d ready=%d dup=%d flagged=%d warnings=%d\n",
				ts, r.ID, r.RiverSlug, r.Stats.TotalScraped, r.Stats.ReadyToImport, r.Stats.Duplicates, r.Stats.Flagged, len(r.Warnings))
		}
		return nil
	},
}

func printRun(cmd *cobra.Command, db *storage.DB, id string) error {
	run, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	points, err := db.ListRunPoints(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %s at %s\n", run.ID, run.RiverName, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	for _, warn := range run.Warnings {
		fmt.Printf("  ! %s\n", warn)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DISPOSITION\tNAME\tSOURCE\tTYPE\tSTATUS\tEXISTING\t")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", p.Disposition, p.Name, p.Source, p.Type, p.VerificationStatus, p.ExistingID)
	}
	return w.Flush()
}

// openHistory opens an existing run history database.
func openHistory(dbPath string) (*storage.DB, error) {
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", absPath)
	}
	return storage.Open(absPath)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/apscrape/apscrape.sqlite)")
	historyCmd.Flags().String("river", "", "Only show runs of this river")
	historyCmd.Flags().Int("limit", 50, "Number of recent runs to show")
}
