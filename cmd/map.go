package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/severity"
	"github.com/KaramelBytes/airloom-cli/internal/stations"
)

var (
	mapColumn string
	mapYear   int
	mapOutput string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Per-station means with coordinates and severity colours",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		ref, err := loadReference()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := dataset.Filter{Year: mapYear}
		if t.Filter(f).Len() == 0 {
			warnEmpty(out, f)
			return nil
		}
		means, err := aggregator.StationMeans(t, mapColumn, f)
		if err != nil {
			return err
		}
		values := make(map[string]dataset.Value, len(means))
		for _, sv := range means {
			values[sv.Station] = sv.Value
		}
		markers, unmapped := stations.Markers(ref, values)
		fr := stations.MarkersFrame(mapColumn, markers)

		if mapOutput != "" {
			if err := writeOutput(out, mapOutput, fr); err != nil {
				return err
			}
		} else {
			c := ref.Center()
			fmt.Fprintf(out, "[MAP]\nReference: %s (%d stations)\nCenter: %.3f, %.3f\nFilter: %s\n", ref.Name(), ref.Len(), c.Lat.Degrees(), c.Lng.Degrees(), f)
			var legend []string
			for _, l := range severity.Legend() {
				legend = append(legend, fmt.Sprintf("%s %s (%s)", l.Level.Color(), l.Band, l.Level))
			}
			fmt.Fprintf(out, "Legend: %s\n\n", strings.Join(legend, ", "))
			if err := printFrames(out, fr); err != nil {
				return err
			}
		}
		if len(unmapped) > 0 {
			fmt.Fprintf(out, "⚠ Stations without coordinates: %s\n", strings.Join(unmapped, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVar(&mapColumn, "column", dataset.ColPM25, "column to aggregate per station")
	mapCmd.Flags().IntVar(&mapYear, "year", 0, "restrict to one calendar year")
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "write markers to file (.csv, .xlsx, .json, .md)")
}
