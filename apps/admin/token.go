package main

import (
	"fmt"

	"github.com/spf13/cobra"

	echoapi "github.com/incubaapp/incuba/apps/api/echo"
	"github.com/incubaapp/incuba/core"
)

func (cli *commandLine) tokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := cli.app.Users.GetByEmail(cmd.Context(), core.CleanString(email, true /* lower */))
			if err != nil {
				return err
			}
			if !usr.IsActive {
				return core.NewForbiddenError("user is deactivated")
			}
			token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, cli.app.Conf), cli.app.Conf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
