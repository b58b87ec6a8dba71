package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/places"
)

// placesCmd represents the places command
var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Query Google Places directly",
}

var placesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a text search, optionally biased toward a point",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requirePlaces(cmd)
		if err != nil {
			return err
		}

		var near *accesspoint.Coordinates
		if s, _ := cmd.Flags().GetString("near"); s != "" {
			c, ok := geo.ParseCoordinates(s)
			if !ok {
				return fmt.Errorf("invalid --near coordinates %q, expected lat,lng", s)
			}
			near = c
		}

		matches, err := client.TextSearch(cmd.Context(), strings.Join(args, " "), near)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No places found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PLACE ID\tNAME\tLAT\tLNG\tADDRESS\t")
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%s\t%.6f\t%.6f\t%s\t\n", m.PlaceID, m.Name, m.Latitude, m.Longitude, m.FormattedAddress)
		}
		return w.Flush()
	},
}

var placesDetailsCmd = &cobra.Command{
	Use:   "details <place-id>",
	Short: "Show the details of a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requirePlaces(cmd)
		if err != nil {
			return err
		}
		p, err := client.PlaceDetails(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Name:     %s\n", p.Name)
		fmt.Printf("Place ID: %s\n", p.PlaceID)
		fmt.Printf("Address:  %s\n", p.FormattedAddress)
		fmt.Printf("Location: %.6f, %.6f\n", p.Latitude, p.Longitude)
		if len(p.Types) > 0 {
			fmt.Printf("Types:    %s\n", strings.Join(p.Types, ", "))
		}
		return nil
	},
}

func requirePlaces(cmd *cobra.Command) (*places.Client, error) {
	client, err := placesClient(cmd)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("no Google Places API key: set GOOGLE_PLACES_API_KEY or places.api_key")
	}
	return client, nil
}

func init() {
	rootCmd.AddCommand(placesCmd)
	placesCmd.AddCommand(placesSearchCmd)
	placesCmd.AddCommand(placesDetailsCmd)
	placesSearchCmd.Flags().String("near", "", "Bias results toward this point (lat,lng)")
}
