package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/datgrab/datgrab/cmd/common"
	hist "github.com/datgrab/datgrab/internal/history"
	"github.com/datgrab/datgrab/pkg/grablib"
)

var historyLimit int

var lsFlags = []cli.Flag{
	cli.IntFlag{
		Name:        "limit, n",
		Usage:       "maximum number of runs to display",
		Value:       DEF_HISTORY_LIMIT,
		Destination: &historyLimit,
	},
}

func history(ctx *cli.Context) error {
	store, err := hist.Open(historyPath())
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "open", err)
		return cli.NewExitError("", 1)
	}
	defer store.Close()

	runs, err := store.RecentRuns(historyLimit)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "query", err)
		return cli.NewExitError("", 1)
	}
	if len(runs) == 0 {
		fmt.Println("no fetch history")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tSYSTEM\tFOUND\tDL\tSKIP\tFAIL\tMISS\tSTATUS\tDESTINATION")
	for _, r := range runs {
		status := "ok"
		if r.Cancelled {
			status = "cancelled"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.FinishedAt.Format("2006-01-02 15:04"),
			r.System,
			r.Found, r.Wanted,
			r.Downloaded, r.Skipped, r.Failed, r.Missing,
			status,
			r.Destination,
		)
	}
	return w.Flush()
}

func historyPath() string {
	return grablib.GetPath(grablib.ConfigDir, hist.DefaultFileName)
}
