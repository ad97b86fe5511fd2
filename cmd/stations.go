package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	stNearest string
	stOutput  string
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the station reference with coordinates and bounds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := loadReference()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if stNearest != "" {
			parts := splitList(stNearest)
			if len(parts) != 2 {
				return fmt.Errorf("invalid --nearest %q (use lat,lon)", stNearest)
			}
			lat, err1 := strconv.ParseFloat(parts[0], 64)
			lon, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				return fmt.Errorf("invalid --nearest %q (use lat,lon)", stNearest)
			}
			s, km := ref.Nearest(lat, lon)
			fmt.Fprintf(out, "Nearest: %s (%.3f, %.3f), %.2f km\n", s.Name, s.Lat, s.Lon, km)
			return nil
		}
		if stOutput != "" {
			return writeOutput(out, stOutput, ref.Frame())
		}
		b := ref.Bounds()
		c := ref.Center()
		fmt.Fprintf(out, "[STATIONS]\nReference: %s (%d stations)\n", ref.Name(), ref.Len())
		fmt.Fprintf(out, "Bounds: %.3f..%.3f N, %.3f..%.3f E\n", b.Lo().Lat.Degrees(), b.Hi().Lat.Degrees(), b.Lo().Lng.Degrees(), b.Hi().Lng.Degrees())
		fmt.Fprintf(out, "Center: %.3f, %.3f\n\n", c.Lat.Degrees(), c.Lng.Degrees())
		return printFrames(out, ref.Frame())
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.Flags().StringVar(&stNearest, "nearest", "", "print the station closest to lat,lon")
	stationsCmd.Flags().StringVarP(&stOutput, "output", "o", "", "write the reference to file (.csv, .xlsx, .json, .md)")
}
