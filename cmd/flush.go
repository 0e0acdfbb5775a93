package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/datgrab/datgrab/cmd/common"
	hist "github.com/datgrab/datgrab/internal/history"
)

var (
	forceFlush bool

	flsFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "force, f, y",
			Usage:       "use this flag to force flush (default: false)",
			Destination: &forceFlush,
		},
	}
)

func flush(ctx *cli.Context) error {
	if !confirm(command("flush"), forceFlush) {
		return nil
	}
	store, err := hist.Open(historyPath())
	if err != nil {
		common.PrintRuntimeErr(ctx, "flush", "open", err)
		return cli.NewExitError("", 1)
	}
	defer store.Close()
	if err = store.Flush(); err != nil {
		common.PrintRuntimeErr(ctx, "flush", "flush", err)
		return cli.NewExitError("", 1)
	}
	fmt.Println("Flushed all fetch history!")
	return nil
}
