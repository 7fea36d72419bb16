package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Load the region catalog and list its regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader(cfg)
		if err != nil {
			return err
		}

		cat, err := loader.Load(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tVERTICES\tBOUNDS\n")
		for _, r := range cat.Regions {
			id := r.ID
			if id == "" {
				id = "(area)"
			}
			b := r.Ring.Bounds()
			fmt.Fprintf(w, "%s\t%d\t[%g %g, %g %g]\n", id, r.Ring.Len(), b.Min(0), b.Min(1), b.Max(0), b.Max(1))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d region(s), %s catalog\n", len(cat.Regions), cat.Shape)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
