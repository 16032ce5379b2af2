package main

import (
	"github.com/spf13/cobra"

	"github.com/incubaapp/incuba/apps/di"
)

var migrateFunc = func(st *di.Store, command string, args ...string) error { // mockable
	return st.Migrate(command, args...)
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateFunc(cli.app.Store, args[0], args[1:]...)
		},
	}
}
