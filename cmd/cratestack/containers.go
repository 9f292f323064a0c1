package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/project"
	"github.com/piwi3910/CrateStack/internal/report"
)

func newContainersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List the container presets usable with --container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.readCatalog()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Catalog(cat))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Merge presets from a catalog file into the saved catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.catalogPath()
			cat, err := project.LoadCatalog(path)
			if err != nil {
				return err
			}
			cat, added, err := project.ImportCatalog(args[0], cat)
			if err != nil {
				return err
			}
			if err := project.SaveCatalog(path, cat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d preset(s) to %s\n", added, path)
			return nil
		},
	})
	return cmd
}
