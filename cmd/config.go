package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/floatplanner/apscrape/internal/utils"
	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/dedupe"
	"github.com/floatplanner/apscrape/pkg/existing"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/pipeline"
	"github.com/floatplanner/apscrape/pkg/places"
	"github.com/floatplanner/apscrape/pkg/sources"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

const scrapeRetries = 2

// pipelineConfig builds the run configuration from viper.
func pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Thresholds = dedupe.Thresholds{
		NameSimilarity:  viper.GetFloat64("dedupe.name_similarity"),
		ProximityMeters: viper.GetFloat64("dedupe.proximity_meters"),
	}
	if cfg.Thresholds.NameSimilarity <= 0 || cfg.Thresholds.NameSimilarity > 1 {
		return cfg, fmt.Errorf("dedupe.name_similarity must be in (0, 1], got %v", cfg.Thresholds.NameSimilarity)
	}
	if cfg.Thresholds.ProximityMeters < 0 {
		return cfg, fmt.Errorf("dedupe.proximity_meters must not be negative, got %v", cfg.Thresholds.ProximityMeters)
	}

	cfg.VerifyEnabled = viper.GetBool("places.enabled")
	cfg.VerifyDelay = viper.GetDuration("verify.delay")
	cfg.Region = viper.GetString("region.name")

	// Unmarshal goes through AllSettings, which merges a single overridden
	// bound with the defaults of the others. UnmarshalKey would not.
	var settings struct {
		Region struct {
			Bounds geo.Bounds `mapstructure:"bounds"`
		} `mapstructure:"region"`
	}
	if err := viper.Unmarshal(&settings); err != nil {
		return cfg, fmt.Errorf("decoding region.bounds: %w", err)
	}
	cfg.Bounds = settings.Region.Bounds
	return cfg, nil
}

// scrapeClient is the HTTP client shared by the source adapters.
func scrapeClient(cmd *cobra.Command) (*retryablehttp.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	client := whttp.NewClient(scrapeRetries)
	if err := whttp.WithProxy(client, proxy); err != nil {
		return nil, err
	}
	return client, nil
}

// placesClient returns nil without error when no API key is configured.
func placesClient(cmd *cobra.Command) (*places.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	hc, err := whttp.ProxyHTTPClient(proxy)
	if err != nil {
		return nil, err
	}
	client, err := places.New(places.Config{
		APIKey:     viper.GetString("places.api_key"),
		HTTPClient: hc,
	})
	if errors.Is(err, places.ErrMissingAPIKey) {
		return nil, nil
	}
	return client, err
}

// configuredSources resolves the --source flags, or the sources config key
// when none were given.
func configuredSources(cmd *cobra.Command, all []sources.Scraper) ([]sources.Scraper, error) {
	names, _ := cmd.Flags().GetStringSlice("source")
	if len(names) == 0 {
		names = viper.GetStringSlice("sources")
	}
	wanted := make([]accesspoint.Source, 0, len(names))
	for _, n := range names {
		wanted = append(wanted, accesspoint.Source(n))
	}
	return sources.Select(all, wanted)
}

// openStore opens the snapshot given by --existing-file, or the planner
// database. The returned func releases it.
func openStore(ctx context.Context, cmd *cobra.Command) (existing.Store, func(), error) {
	if path, _ := cmd.Flags().GetString("existing-file"); path != "" {
		store, err := existing.OpenFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		utils.Log.Debugf("Reading existing access points from %s", path)
		return store, func() {}, nil
	}

	url := viper.GetString("database.url")
	if url == "" {
		return nil, nil, errors.New("no database configured: set DATABASE_URL, database.url or use --existing-file")
	}
	store, err := existing.Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("existing-file", "", "Read rivers and existing access points from a JSON snapshot instead of the database")
}
