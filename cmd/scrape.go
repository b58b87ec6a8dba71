package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/floatplanner/apscrape/internal/utils"
	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/dedupe"
	"github.com/floatplanner/apscrape/pkg/existing"
	"github.com/floatplanner/apscrape/pkg/export"
	"github.com/floatplanner/apscrape/pkg/pipeline"
	"github.com/floatplanner/apscrape/pkg/sources"
	"github.com/floatplanner/apscrape/pkg/storage"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape, verify and deduplicate access points for one river",
	Long: `Scrapes every configured source for the river's access points, verifies them with
Google Places, drops the ones already in the planner database and writes JSON, SQL
and summary files for review.

Without --river a numbered list of rivers is shown to pick from.`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringP("river", "r", "", "Slug of the river to scrape")
	scrapeCmd.Flags().StringSliceP("source", "s", nil, "Source to scrape, repeatable (default: all). Available: "+strings.Join(sourceNames(accesspoint.AllSources), ", "))
	scrapeCmd.Flags().Bool("no-verify", false, "Skip Google Places verification")
	scrapeCmd.Flags().Float64("name-threshold", 0, "Name similarity needed for a duplicate, 0-1 (default from config: 0.85)")
	scrapeCmd.Flags().Float64("proximity", 0, "Distance in meters under which points are duplicates (default from config: 100)")
	scrapeCmd.Flags().StringP("output-dir", "o", "", "Directory for the generated files (default from config: scripts/output/scraped-data)")
	scrapeCmd.Flags().Bool("dry-run", false, "Print the report without writing any files")
	scrapeCmd.Flags().Bool("db", false, "Record the run in the local run history")
	scrapeCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/apscrape/apscrape.sqlite)")
	addStoreFlags(scrapeCmd)

	_ = viper.BindPFlag("output.dir", scrapeCmd.Flags().Lookup("output-dir"))
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if noVerify, _ := cmd.Flags().GetBool("no-verify"); noVerify {
		viper.Set("places.enabled", false)
	}
	if v, _ := cmd.Flags().GetFloat64("name-threshold"); cmd.Flags().Changed("name-threshold") {
		viper.Set("dedupe.name_similarity", v)
	}
	if v, _ := cmd.Flags().GetFloat64("proximity"); cmd.Flags().Changed("proximity") {
		viper.Set("dedupe.proximity_meters", v)
	}

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	river, err := resolveRiver(cmd, store)
	if err != nil {
		return err
	}

	client, err := scrapeClient(cmd)
	if err != nil {
		return err
	}
	scrapers, err := configuredSources(cmd, sources.Default(client))
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Scrapers: scrapers,
		Store:    store,
		Config:   cfg,
		Log:      utils.Log,
	}
	if cfg.VerifyEnabled {
		searcher, err := placesClient(cmd)
		if err != nil {
			return err
		}
		// A nil *places.Client must not end up as a non-nil interface.
		if searcher != nil {
			runner.Searcher = searcher
		}
	}

	utils.Log.Infof("Scraping access points for %s", river.Name)
	res, err := runner.Run(ctx, river)
	if err != nil {
		return err
	}

	fmt.Println(dedupe.Report(res.Dedup))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		files, err := export.WriteAll(res.Output, river.ID, viper.GetString("output.dir"), res.Output.Timestamp)
		if err != nil {
			return err
		}
		fmt.Printf("Output files:\n  %s\n  %s\n  %s\n\n", files.JSON, files.SQL, files.Summary)
	}

	if useDB, _ := cmd.Flags().GetBool("db"); useDB {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if err := recordRun(cmd, dbPath, res.Output); err != nil {
			return err
		}
	}

	printCompletion(os.Stdout, res, dryRun)
	return nil
}

func recordRun(cmd *cobra.Command, dbPath string, out accesspoint.Output) error {
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return err
	}
	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(cmd.Context()); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(absPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRun(cmd.Context(), out); err != nil {
		return err
	}
	utils.Log.Infof("Recorded run %s in %s", out.RunID, absPath)
	return nil
}

func resolveRiver(cmd *cobra.Command, store existing.Store) (accesspoint.River, error) {
	rivers, err := store.ListRivers(cmd.Context())
	if err != nil {
		return accesspoint.River{}, err
	}
	if len(rivers) == 0 {
		return accesspoint.River{}, errors.New("no rivers found in the datastore")
	}

	slug, _ := cmd.Flags().GetString("river")
	if slug != "" {
		return existing.FindRiver(rivers, slug)
	}
	return pickRiver(os.Stdin, os.Stdout, rivers)
}

// pickRiver prints a numbered list of rivers and reads the choice from in.
func pickRiver(in io.Reader, out io.Writer, rivers []accesspoint.River) (accesspoint.River, error) {
	fmt.Fprintln(out, "Available rivers:")
	for i, r := range rivers {
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, r.Name, r.Slug)
	}
	fmt.Fprint(out, "\nSelect river number: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return accesspoint.River{}, fmt.Errorf("reading river selection: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(rivers) {
		return accesspoint.River{}, fmt.Errorf("invalid river selection %q", strings.TrimSpace(line))
	}
	return rivers[n-1], nil
}

func printCompletion(w io.Writer, res *pipeline.Result, dryRun bool) {
	st := res.Output.Stats
	fmt.Fprintln(w, "Scraping complete!")
	fmt.Fprintf(w, "  Total scraped:     %d\n", st.TotalScraped)
	fmt.Fprintf(w, "  Verified:          %d\n", st.Verified)
	fmt.Fprintf(w, "  Existing in DB:    %d\n", res.Existing)
	fmt.Fprintf(w, "  Duplicates:        %d\n", st.Duplicates)
	fmt.Fprintf(w, "  Flagged:           %d\n", st.Flagged)
	fmt.Fprintf(w, "  Ready to import:   %d\n", st.ReadyToImport)
	if dryRun {
		fmt.Fprintln(w, "  (dry run: no files written)")
	}
	if len(res.Output.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range res.Output.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warn)
		}
	}
}
