package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/project"
	"github.com/piwi3910/CrateStack/internal/rl"
)

func newBackupCmd(c *cli) *cobra.Command {
	var policyPath string
	policy := func() string {
		if policyPath != "" {
			return policyPath
		}
		return c.cfg.Storage.PolicyPath
	}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Move the configuration and trained policy between machines",
	}

	export := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the effective configuration and the policy to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var table *rl.ValueTable
			if path := policy(); path != "" {
				t, err := project.LoadPolicy(cmd.Context(), path)
				if err != nil {
					return err
				}
				table = t
			}
			if err := project.ExportBackup(args[0], c.cfg, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", args[0])
			return nil
		},
	}

	var configOut string
	restore := &cobra.Command{
		Use:   "import FILE",
		Short: "Restore a backup into a config file and a policy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := project.ImportBackup(args[0])
			if err != nil {
				return err
			}
			if configOut == "" {
				configOut = project.DefaultConfigPath()
			}
			if err := project.SaveAppConfig(configOut, cfg); err != nil {
				return err
			}
			path := policy()
			if path == "" {
				path = cfg.Storage.PolicyPath
			}
			if path != "" && table.Len() > 0 {
				if err := project.SavePolicy(cmd.Context(), path, table); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config restored to %s, %d policy entries\n", configOut, table.Len())
			return nil
		},
	}
	restore.Flags().StringVar(&configOut, "config-out", "", "where to write the restored configuration (default ~/.cratestack/config.yaml)")

	cmd.PersistentFlags().StringVar(&policyPath, "policy", "", "policy file (.json, .json.zst or .db)")
	cmd.AddCommand(export, restore)
	return cmd
}
