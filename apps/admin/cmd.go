package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/incubaapp/incuba/apps/di"
)

type commandLine struct {
	app *di.App
	out io.Writer
}

func newCommandLine(app *di.App, out io.Writer) *commandLine {
	return &commandLine{app: app, out: out}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "Incuba administration commands",
		SilenceUsage: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.tokenCmd(),
		cli.exportCmd(),
	)
	return root
}

// run executes os.Args style arguments, program name included.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.Execute()
}
