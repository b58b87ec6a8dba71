package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/dedupe"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <output.json>",
	Short: "Print the deduplication report of a previous run from its JSON output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := readOutput(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s) - run %s at %s\n\n", out.River.Name, out.River.Slug, out.RunID, out.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Println(dedupe.Report(out.Result()))
		return nil
	},
}

func readOutput(path string) (accesspoint.Output, error) {
	var out accesspoint.Output
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding %s: %w", path, err)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
