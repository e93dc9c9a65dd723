package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/hyperkit/errors"
)

func newSchemaCmd(a *app) *cobra.Command {
	var reload bool
	cmd := &cobra.Command{
		Use:   "schema [type]",
		Short: "Show the API types, or one type's filters and methods",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if reload {
				if err := c.ReloadSchema(ctx); err != nil {
					return err
				}
			}
			p := a.printer(cmd.OutOrStdout())
			if len(args) == 0 {
				return p.schemaTypes(c.Schema())
			}
			st, ok := c.Schema().Type(args[0])
			if !ok {
				return errors.UnknownType(args[0])
			}
			return p.schemaType(st)
		},
	}
	cmd.Flags().BoolVar(&reload, "reload", false, "fetch the schema again, bypassing the cache")
	return cmd
}
