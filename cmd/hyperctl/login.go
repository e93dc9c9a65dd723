package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
)

func newLoginCmd(a *app) *cobra.Command {
	var loginURL string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password and print the token",
		Long: `Log in against the local auth provider (or --login-url) and print the
issued token. Export it as HYPER_TOKEN to reuse it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.settings.BaseURL() == "" && loginURL == "" {
				return errors.InvalidInput("url", "url or host is required")
			}
			if a.settings.Password == "" {
				return errors.InvalidInput("password", "is required")
			}
			token, err := hyper.Login(cmd.Context(), a.settings.TransportConfig(a.log), loginURL,
				a.settings.Username, a.settings.Password)
			if err != nil {
				return err
			}
			p := a.printer(cmd.OutOrStdout())
			if p.format == formatTable {
				return p.value(token)
			}
			return p.value(map[string]string{"token": token})
		},
	}
	cmd.Flags().StringVar(&loginURL, "login-url", "", "login endpoint (default: the local provider next to --url)")
	return cmd
}
