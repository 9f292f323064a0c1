package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/project"
	"github.com/piwi3910/CrateStack/internal/report"
	"github.com/piwi3910/CrateStack/internal/rl"
)

// outputFlags override the configured output paths.
type outputFlags struct {
	result, pdf, labels, excel, dxf string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.result, "out", "o", "", "result document path (.json)")
	f.StringVar(&o.pdf, "pdf", "", "PDF report path")
	f.StringVar(&o.labels, "labels", "", "QR label sheet path (.pdf)")
	f.StringVar(&o.excel, "excel", "", "Excel workbook path (.xlsx)")
	f.StringVar(&o.dxf, "dxf", "", "3-D wireframe path (.dxf)")
}

func (o *outputFlags) apply(cmd *cobra.Command, out model.OutputConfig) model.OutputConfig {
	f := cmd.Flags()
	if f.Changed("out") {
		out.ResultPath = o.result
	}
	if f.Changed("pdf") {
		out.PDFPath = o.pdf
	}
	if f.Changed("labels") {
		out.LabelsPath = o.labels
	}
	if f.Changed("excel") {
		out.ExcelPath = o.excel
	}
	if f.Changed("dxf") {
		out.DXFPath = o.dxf
	}
	return out
}

func newPackCmd(c *cli) *cobra.Command {
	var (
		outputs    outputFlags
		useAdvisor bool
		policyPath string
	)
	cmd := &cobra.Command{
		Use:   "pack ITEMS",
		Short: "Pack an item list (.csv, .xlsx or .json) into the container",
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

			opts := []engine.Option{engine.WithLogger(logging.New("engine")), engine.WithMetrics(sink)}
			if useAdvisor {
				path := policyPath
				if path == "" {
					path = c.cfg.Storage.PolicyPath
				}
				if path == "" {
					return fmt.Errorf("--advisor needs --policy or storage.policy_path")
				}
				table, err := project.LoadPolicy(ctx, path)
				if err != nil {
					return err
				}
				c.log.Infof("advising placements from %s (%d entries)", path, table.Len())
				opts = append(opts, engine.WithAdvisor(rl.NewAdvisor(rl.NewAgent(c.cfg.RL, table))))
			}

			result, err := engine.New(c.cfg.Packing, opts...).Optimize(ctx, c.cfg.Container, items)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Result(result))
			return writeOutputs(outputs.apply(cmd, c.cfg.Output), result, c.log)
		},
	}
	outputs.register(cmd)
	cmd.Flags().BoolVar(&useAdvisor, "advisor", false, "ask a trained policy for placements before searching")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy file for --advisor (.json, .json.zst or .db)")
	return cmd
}
