package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// riversCmd represents the rivers command
var riversCmd = &cobra.Command{
	Use:   "rivers",
	Short: "List the rivers known to the planner database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeStore, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		rivers, err := store.ListRivers(cmd.Context())
		if err != nil {
			return err
		}
		if len(rivers) == 0 {
			fmt.Println("No rivers found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tMILES\tREGION\t")
		for _, r := range rivers {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t\n", r.Slug, r.Name, r.LengthMiles, r.Region)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(riversCmd)
	addStoreFlags(riversCmd)
}
