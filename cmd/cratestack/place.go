package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/metrics"
	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/project"
	"github.com/piwi3910/CrateStack/internal/report"
	"github.com/piwi3910/CrateStack/internal/seed"
)

func newPlaceCmd(c *cli) *cobra.Command {
	var outputs outputFlags
	cmd := &cobra.Command{
		Use:   "place RESULT ITEMS",
		Short: "Add items to a saved packing near positions predicted from its placements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			prev, err := project.LoadResult(args[0])
			if err != nil {
				return err
			}
			items, err := loadItems(args[1], c.log)
			if err != nil {
				return err
			}
			sink, err := c.metricsSink(ctx)
			if err != nil {
				return err
			}

			result, err := placeInto(ctx, c.cfg.Packing, prev, items, sink, logging.New("engine"))
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Result(result))
			out := outputs.apply(cmd, c.cfg.Output)
			if !cmd.Flags().Changed("out") {
				out.ResultPath = args[0]
			}
			return writeOutputs(out, result, c.log)
		},
	}
	outputs.register(cmd)
	return cmd
}

// placeInto restores prev, fits a seed model on its placements and places each
// item near its predicted position. Items already unplaced in prev stay listed.
func placeInto(ctx context.Context, settings model.PackSettings, prev model.PackResult, items []model.Item,
	sink metrics.Sink, log logging.Logger) (model.PackResult, error) {
	container, err := engine.Restore(prev)
	if err != nil {
		return model.PackResult{}, err
	}

	var oracle engine.SeedOracle
	reg, err := seed.Fit(prev.Placements)
	switch {
	case err == nil:
		oracle = reg
		log.Debugf("seed model fitted on %d placements", reg.Samples())
	case errors.Is(err, seed.ErrNoData):
		log.Infof("no placements to learn from, scanning the full container")
	default:
		log.Warnf("seed model fit failed, scanning the full container: %v", err)
	}

	packing := engine.New(settings, engine.WithLogger(log), engine.WithMetrics(sink)).Resume(container)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return model.PackResult{}, err
		}
		packing.PlaceSeeded(ctx, it, oracle)
	}

	result := packing.Result()
	result.Unplaced = append(append([]model.UnplacedItem{}, prev.Unplaced...), result.Unplaced...)
	sink.RecordRun(result.FillRate(), len(result.Placements), len(result.Unplaced))
	return result, nil
}
