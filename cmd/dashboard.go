package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/irisdash/internal/dataset"
	"github.com/itsmostafa/irisdash/internal/present"
)

var (
	dashSpecies []string
	dashX       string
	dashY       string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the filtered data, scatter plot and summary statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dataset.Iris()
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		view, err := dataset.NewView(f, dataset.ViewOptions{Species: dashSpecies, X: dashX, Y: dashY})
		if err != nil {
			return err
		}

		term := present.NewTerminal(cmd.OutOrStdout(), present.Options{Style: cfg.Style})
		term.Title("Iris Dashboard")
		term.Dashboard(view)
		fmt.Fprintln(cmd.OutOrStdout(), "---")
		fmt.Fprintln(cmd.OutOrStdout(), "Dashboard built with irisdash")
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringSliceVar(&dashSpecies, "species", nil, "Species to show (default all)")
	dashboardCmd.Flags().StringVar(&dashX, "x", dataset.FeatureNames[0], "X-axis feature")
	dashboardCmd.Flags().StringVar(&dashY, "y", dataset.FeatureNames[1], "Y-axis feature")
	rootCmd.AddCommand(dashboardCmd)
}
