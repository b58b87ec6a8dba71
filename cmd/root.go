package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/floatplanner/apscrape/internal/utils"
	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/dedupe"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/verify"
)

var cfgFile string

const (
	LOGO = `
	  __ _ _ __  ___  ___ _ __ __ _ _ __   ___
	 / _' | '_ \/ __|/ __| '__/ _' | '_ \ / _ \
	| (_| | |_) \__ \ (__| | | (_| | |_) |  __/
	 \__,_| .__/|___/\___|_|  \__,_| .__/ \___|
	      |_|                      |_|
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apscrape",
	Short: "Scrape, verify and deduplicate river access points for the float planner.",
	Long: LOGO + `apscrape collects candidate river access points from public web sources,
verifies them with Google Places, checks them against the access points already in
the planner database and writes JSON, SQL and summary files for manual review.

It never writes to the planner database.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.apscrape.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads .env.local, the config file and ENV variables if set.
func initConfig() {
	// Same file the planner's web app reads its secrets from.
	_ = godotenv.Load(".env.local")

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".apscrape")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("apscrape")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("places.api_key", "APSCRAPE_PLACES_API_KEY", "GOOGLE_PLACES_API_KEY")
	_ = viper.BindEnv("database.url", "APSCRAPE_DATABASE_URL", "DATABASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func setDefaults() {
	th := dedupe.DefaultThresholds()
	viper.SetDefault("places.api_key", "")
	viper.SetDefault("places.enabled", true)
	viper.SetDefault("dedupe.name_similarity", th.NameSimilarity)
	viper.SetDefault("dedupe.proximity_meters", th.ProximityMeters)
	viper.SetDefault("sources", sourceNames(accesspoint.AllSources))
	viper.SetDefault("output.dir", filepath.Join("scripts", "output", "scraped-data"))
	viper.SetDefault("database.url", "")
	viper.SetDefault("verify.delay", verify.DefaultDelay)
	viper.SetDefault("region.name", verify.DefaultRegion)
	viper.SetDefault("region.bounds.min_lat", geo.MissouriBounds.MinLat)
	viper.SetDefault("region.bounds.max_lat", geo.MissouriBounds.MaxLat)
	viper.SetDefault("region.bounds.min_lng", geo.MissouriBounds.MinLng)
	viper.SetDefault("region.bounds.max_lng", geo.MissouriBounds.MaxLng)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
}

func sourceNames(sources []accesspoint.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return names
}
