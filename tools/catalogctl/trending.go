package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/trending"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	showAll    bool
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show or replace the trending products",
}

var trendingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List trending products in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, release, err := openProducts(ctx)
		if err != nil {
			return err
		}
		defer release()

		c := trending.NewCurator(store, trending.WithLogger(log))
		if err := c.Load(ctx); err != nil {
			return err
		}
		snap := c.Snapshot("")

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		printSnapshot(cmd.OutOrStdout(), snap, showAll)
		return nil
	},
}

var trendingSetCmd = &cobra.Command{
	Use:   "set <product-id>...",
	Short: "Replace the trending list with the given products, in order",
	Long: `Replace the trending list. Products are shown in the order given.
Passing no ids clears the list.

Examples:
  catalogctl trending set 3f2c... 91ab...   # Two trending products
  catalogctl trending set                   # Clear trending`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(args))
		for _, a := range args {
			id, err := uuid.Parse(a)
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", a, err)
			}
			ids = append(ids, id)
		}

		ctx := cmd.Context()
		store, release, err := openProducts(ctx)
		if err != nil {
			return err
		}
		defer release()

		c := trending.NewCurator(store,
			trending.WithLogger(log),
			trending.WithAtomicSave(cfg.TrendingAtomicSave),
		)
		if err := c.Load(ctx); err != nil {
			return err
		}
		if err := c.SetOrder(ids); err != nil {
			return err
		}
		if err := c.Save(ctx); err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), c.Snapshot(""), false)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendingCmd)
	trendingCmd.AddCommand(trendingShowCmd)
	trendingCmd.AddCommand(trendingSetCmd)

	trendingShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	trendingShowCmd.Flags().BoolVarP(&showAll, "all", "a", false, "Also list products that are not trending")
}

func printSnapshot(out io.Writer, snap trending.Snapshot, all bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tNAME")
	for i, p := range snap.Trending {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, p.ID, p.Name)
	}
	if all {
		for _, p := range snap.Available {
			fmt.Fprintf(w, "-\t%s\t%s\n", p.ID, p.Name)
		}
	}
	w.Flush()
	fmt.Fprintf(out, "%d trending of %d products\n", len(snap.Trending), snap.Total)
}
