package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/project"
	"github.com/piwi3910/CrateStack/internal/report"
	"github.com/piwi3910/CrateStack/internal/rl"
)

func newTrainCmd(c *cli) *cobra.Command {
	var (
		episodes   int
		policyPath string
		bestOut    string
	)
	cmd := &cobra.Command{
		Use:   "train ITEMS",
		Short: "Train the placement policy on an item list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			if !cmd.Flags().Changed("episodes") {
				episodes = c.cfg.RL.Episodes
			}
			if episodes <= 0 {
				return fmt.Errorf("--episodes must be positive, got %d", episodes)
			}
			path := policyPath
			if path == "" {
				path = c.cfg.Storage.PolicyPath
			}
			if path == "" {
				return fmt.Errorf("train needs --policy or storage.policy_path")
			}

			items, err := loadItems(args[0], c.log)
			if err != nil {
				return err
			}
			sink, err := c.metricsSink(ctx)
			if err != nil {
				return err
			}

			opts := []rl.TrainerOption{rl.WithLogger(logging.New("trainer")), rl.WithMetrics(sink)}
			load := func() (*rl.ValueTable, error) { return project.LoadValueTable(path) }
			save := func(t *rl.ValueTable) error { return project.SaveValueTable(path, t) }
			if project.IsDatabase(path) {
				store, err := project.OpenPolicyStore(path)
				if err != nil {
					return err
				}
				defer store.Close()
				load = func() (*rl.ValueTable, error) { return store.LoadTable(ctx) }
				// Saving must also work after an interrupt cancelled ctx.
				save = func(t *rl.ValueTable) error { return store.SaveTable(context.Background(), t) }
				opts = append(opts, rl.WithEpisodeLog(store))
			}

			table, err := load()
			if err != nil {
				return err
			}
			c.log.Infof("training on %d items for %d episodes, starting from %d table entries", len(items), episodes, table.Len())

			agent := rl.NewAgent(c.cfg.RL, table)
			res, err := rl.NewTrainer(agent, c.cfg.RL, opts...).Train(ctx, c.cfg.Container, items, episodes)
			if err != nil {
				// Keep what was learned before the interruption.
				if saveErr := save(agent.Table()); saveErr != nil {
					c.log.Errorf("save policy after failed training: %v", saveErr)
				}
				return err
			}

			if err := save(agent.Table()); err != nil {
				return err
			}
			c.log.Infof("saved %d table entries to %s", agent.Table().Len(), path)

			fmt.Fprint(cmd.OutOrStdout(), report.Training(res))
			if bestOut != "" {
				if err := project.SaveResult(bestOut, res.BestPacking); err != nil {
					return err
				}
				c.log.Infof("wrote best packing to %s", bestOut)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 0, "number of training episodes (default rl.episodes from config)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy file to extend (.json, .json.zst or .db)")
	cmd.Flags().StringVarP(&bestOut, "out", "o", "", "write the best episode's packing to this result document")
	return cmd
}
