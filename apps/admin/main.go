package main

import (
	"fmt"
	"os"

	"github.com/incubaapp/incuba/apps/di"
	"github.com/incubaapp/incuba/core"
)

func main() {
	conf := core.NewConfig()

	app, cleanup, err := di.InitApp(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing app: %v\n", err)
		os.Exit(1)
	}

	cli := newCommandLine(app, os.Stdout)
	err = cli.run(os.Args)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}
