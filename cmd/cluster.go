package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/cluster"
)

var (
	clFilter      filterFlags
	clFeatures    string
	clK           int
	clSeed        int64
	clRestarts    int
	clMaxIter     int
	clOutput      string
	clAssignments string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "K-means clustering of observations over standardized features",
	Long: `Cluster groups observations with k-means over standardized features.
Rows with any missing feature are excluded and reported separately.
Feature presets: full (PM2.5, PM10, TEMP, WSPM) and particulate (PM2.5, PM10),
or pass a comma-separated column list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := clFilter.filter()
		sel := t.Filter(f)
		if sel.Len() == 0 {
			warnEmpty(out, f)
			return nil
		}

		c := settings()
		featureSet := c.ClusterFeatures
		if clFeatures != "" {
			featureSet = clFeatures
		}
		features, err := cluster.ResolveFeatures(featureSet)
		if err != nil {
			return err
		}
		k := c.ClusterK
		if cmd.Flags().Changed("clusters") {
			k = clK
		}
		cl := cluster.NewClassifier()
		cl.Logger = appLogger()
		cl.Seed = c.ClusterSeed
		cl.Restarts = c.ClusterRestarts
		cl.MaxIter = c.ClusterMaxIter
		if cmd.Flags().Changed("seed") {
			cl.Seed = clSeed
		}
		if cmd.Flags().Changed("restarts") {
			cl.Restarts = clRestarts
		}
		if cmd.Flags().Changed("max-iter") {
			cl.MaxIter = clMaxIter
		}

		res, err := cl.Fit(sel, features, k)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[CLUSTERS]\nFilter: %s\nFeatures: %v\nk=%d seed=%d restarts=%d\nRows clustered: %d (excluded %d)\nInertia: %.4f after %d iterations\n\n",
			f, res.Features, res.K, cl.Seed, cl.Restarts, res.Used, sel.Len()-res.Used, res.Inertia, res.Iterations)

		if clAssignments != "" {
			as, err := res.AssignmentsFrame(sel)
			if err != nil {
				return err
			}
			if err := writeOutput(out, clAssignments, as); err != nil {
				return err
			}
		}
		if clOutput != "" {
			return writeOutput(out, clOutput, res.Frame(), res.StationsFrame(sel))
		}
		return printFrames(out, res.Frame(), res.StationsFrame(sel))
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clFilter.register(clusterCmd)
	clusterCmd.Flags().StringVar(&clFeatures, "features", "", "preset (full|particulate) or comma-separated columns (default cluster_features)")
	clusterCmd.Flags().IntVarP(&clK, "clusters", "k", 0, "number of clusters (default cluster_k)")
	clusterCmd.Flags().Int64Var(&clSeed, "seed", 0, "random seed (default cluster_seed)")
	clusterCmd.Flags().IntVar(&clRestarts, "restarts", 0, "k-means restarts (default cluster_restarts)")
	clusterCmd.Flags().IntVar(&clMaxIter, "max-iter", 0, "iteration cap per restart (default cluster_max_iter)")
	clusterCmd.Flags().StringVarP(&clOutput, "output", "o", "", "write centroids and station counts (.csv, .xlsx, .json, .md)")
	clusterCmd.Flags().StringVar(&clAssignments, "assignments", "", "write per-row labels (.csv, .xlsx, .json, .md)")
}
