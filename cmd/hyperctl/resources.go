package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
)

func newListCmd(a *app) *cobra.Command {
	var (
		filters []string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List a collection",
		Example: `  hyperctl list cluster
  hyperctl list node -f clusterId=c-1 -f name_prefix=worker
  hyperctl list user -f limit=50 --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			page, err := c.List(ctx, args[0], f)
			if err != nil {
				return err
			}
			items := page.Items()
			for all && page.HasNext() {
				if page, err = page.Next(ctx); err != nil {
					return err
				}
				items = append(items, page.Items()...)
			}
			return a.printer(cmd.OutOrStdout()).objects(items)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value, repeatable")
	cmd.Flags().BoolVar(&all, "all", false, "follow pagination to the last page")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := a.fetch(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).object(obj)
		},
	}
}

// bodyFlags are shared by the commands that send a body.
type bodyFlags struct {
	file string
	sets []string
}

func (b *bodyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&b.file, "file", "F", "", "YAML or JSON body, - for stdin")
	cmd.Flags().StringArrayVar(&b.sets, "set", nil, "body field as key=value, dotted keys nest, repeatable")
}

func (b *bodyFlags) read(cmd *cobra.Command) (*hyper.Object, error) {
	return readBody(cmd.InOrStdin(), b.file, b.sets)
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		body bodyFlags
		wait bool
	)
	cmd := &cobra.Command{
		Use:     "create <type>",
		Short:   "Create a resource",
		Example: `  hyperctl create cluster --set name=dev --set labels.env=test --wait`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			payload, err := body.read(cmd)
			if err != nil {
				return err
			}
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			obj, err := c.Create(ctx, args[0], payload)
			if err != nil {
				return err
			}
			if wait {
				if obj, err = c.WaitSuccess(ctx, obj, a.settings.WaitTimeout); err != nil {
					return err
				}
			}
			return a.printer(cmd.OutOrStdout()).object(obj)
		},
	}
	body.register(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the resource to finish transitioning")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var body bodyFlags
	cmd := &cobra.Command{
		Use:   "update <type> <id>",
		Short: "Update a resource, retrying on conflicts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			payload, err := body.read(cmd)
			if err != nil {
				return err
			}
			if len(payload.Keys()) == 0 {
				return errors.InvalidInput("body", "nothing to update, use --file or --set")
			}
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			obj, err := c.UpdateByID(ctx, args[0], args[1], payload)
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).object(obj)
		},
	}
	body.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var ignoreMissing bool
	cmd := &cobra.Command{
		Use:   "delete <type> <id>...",
		Short: "Delete resources",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			objs := make([]*hyper.Object, 0, len(args)-1)
			for _, id := range args[1:] {
				obj, err := c.ByID(ctx, args[0], id, nil)
				if err != nil {
					return err
				}
				if obj == nil {
					if ignoreMissing {
						continue
					}
					return notFound(args[0], id)
				}
				objs = append(objs, obj)
			}
			if _, err := c.Delete(ctx, objs...); err != nil {
				return err
			}
			p := a.printer(cmd.OutOrStdout())
			for _, obj := range objs {
				if err := p.value(obj.Type() + "/" + obj.ID() + " deleted"); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ignoreMissing, "ignore-not-found", false, "skip ids that do not exist")
	return cmd
}

func newActionCmd(a *app) *cobra.Command {
	var body bodyFlags
	cmd := &cobra.Command{
		Use:     "action <type> <id> <action>",
		Short:   "Invoke a resource action",
		Example: `  hyperctl action cluster c-1 generateKubeconfig -o yaml`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			payload, err := body.read(cmd)
			if err != nil {
				return err
			}
			obj, err := a.fetch(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			out, err := a.client.Action(ctx, obj, args[2], payload)
			if err != nil {
				return err
			}
			if out == nil {
				return nil
			}
			return a.printer(cmd.OutOrStdout()).object(out)
		},
	}
	body.register(cmd)
	return cmd
}

func newWaitCmd(a *app) *cobra.Command {
	var (
		timeout   time.Duration
		state     string
		condition string
	)
	cmd := &cobra.Command{
		Use:   "wait <type> <id>",
		Short: "Wait for a resource to settle",
		Long: `Without flags, wait until the resource stops transitioning and fail if
it ends in error. --state waits for a state value, --condition for a
condition with status True.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			var obj *hyper.Object
			switch {
			case state != "":
				obj, err = hyper.WaitForState(ctx, c, args[0], args[1], state, timeout)
			case condition != "":
				if obj, err = a.fetch(cmd, args[0], args[1]); err == nil {
					obj, err = hyper.WaitForCondition(ctx, c, obj, condition, "True", timeout)
				}
			default:
				if obj, err = a.fetch(cmd, args[0], args[1]); err == nil {
					obj, err = c.WaitSuccess(ctx, obj, timeout)
				}
			}
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).object(obj)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (default from settings)")
	cmd.Flags().StringVar(&state, "state", "", "wait until the state field equals this value")
	cmd.Flags().StringVar(&condition, "condition", "", "wait until this condition type is True")
	return cmd
}

// fetch loads typeName/id and turns a missing resource into an error.
func (a *app) fetch(cmd *cobra.Command, typeName, id string) (*hyper.Object, error) {
	ctx := cmd.Context()
	c, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := c.ByID(ctx, typeName, id, nil)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, notFound(typeName, id)
	}
	return obj, nil
}

func notFound(typeName, id string) error {
	return &hyper.APIError{
		Status:  http.StatusNotFound,
		Code:    "NotFound",
		Message: "[" + typeName + ":" + id + "] not found",
	}
}
