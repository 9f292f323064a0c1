package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/report"
)

func newCompareCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compare ITEMS",
		Short: "Pack an item list under several setting variants and compare fill rates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			items, err := loadItems(args[0], c.log)
			if err != nil {
				return err
			}
			sink, err := c.metricsSink(ctx)
			if err != nil {
				return err
			}

			scenarios := engine.BuildDefaultScenarios(c.cfg.Packing)
			results, err := engine.CompareScenarios(ctx, scenarios, c.cfg.Container, items,
				engine.WithLogger(logging.New("engine")), engine.WithMetrics(sink))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Comparison(results))
			return nil
		},
	}
}
