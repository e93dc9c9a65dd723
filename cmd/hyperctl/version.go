package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/hyperkit/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// No settings are needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.validateOutput() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			p := a.printer(cmd.OutOrStdout())
			if p.format == formatTable {
				return p.value("hyperctl version " + info.String())
			}
			return p.value(info)
		},
	}
}
