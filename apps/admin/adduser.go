package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		name  string
		email string
		roles []string
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the name and roles of an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := cli.addUser(cmd.Context(), name, email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%s <%s> %v\n", usr.ID, usr.Email, usr.Roles)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant; repeatable (defaults to emprendedor:candidato)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, name, email string, roles []string) (user.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := cli.app.Users
	email = core.CleanString(email, true /* lower */)

	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if !core.IsNotFound(err) {
			return user.User{}, err
		}
		nu := user.NewUser{Name: name, Email: email, Roles: roles}
		if nu.Name == "" {
			nu.Name = email
		}
		if err := nu.Validate(cli.app.Validate, svc); err != nil {
			return user.User{}, err
		}
		return svc.Create(ctx, nu)
	}

	active := true
	uu := user.UpdateUser{Name: name, IsActive: &active, Roles: roles}
	if err := uu.Validate(usr, cli.app.Validate, svc); err != nil {
		return user.User{}, err
	}
	return svc.Update(ctx, usr.ID, uu)
}
