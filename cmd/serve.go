package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/floatplanner/apscrape/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history as a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		db, err := openHistory(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		listenAddr, _ := cmd.Flags().GetString("listen")
		return server.New(db, viper.GetString("server.username"), viper.GetString("server.password")).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/apscrape/apscrape.sqlite)")
	serveCmd.Flags().String("user", "", "Basic auth username (default from config: server.username)")
	serveCmd.Flags().String("pass", "", "Basic auth password (default from config: server.password)")
	_ = viper.BindPFlag("server.username", serveCmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("server.password", serveCmd.Flags().Lookup("pass"))
}
