package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"

	"github.com/datgrab/datgrab/cmd/common"
	"github.com/datgrab/datgrab/internal/dat"
	hist "github.com/datgrab/datgrab/internal/history"
	"github.com/datgrab/datgrab/internal/listing"
	"github.com/datgrab/datgrab/pkg/grablib"
	"github.com/datgrab/datgrab/pkg/logger"
)

var (
	datPath      string
	listURL      string
	outDir       string
	userAgent    string
	proxyURL     string
	limitRate    string
	logFile      string
	skipExisting bool
	listOnly     bool
	quiet        bool
	noHistory    bool
	timeoutSecs  int
	maxRedirects int
)

var fetchFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "dat, i",
		Usage:       "path to the DAT manifest file",
		Destination: &datPath,
	},
	cli.StringFlag{
		Name:        "url, u",
		Usage:       "url of the remote directory listing",
		Destination: &listURL,
	},
	cli.StringFlag{
		Name:        "out, o",
		Usage:       "output directory (default: the manifest's system name)",
		Destination: &outDir,
	},
	cli.BoolFlag{
		Name:        "skip-existing, s",
		Usage:       "skip any file already present locally, whatever its size",
		Destination: &skipExisting,
	},
	cli.BoolFlag{
		Name:        "list-only, l",
		Usage:       "print the reconciliation result without downloading",
		Destination: &listOnly,
	},
	cli.StringFlag{
		Name:        "user-agent, A",
		Usage:       "user agent for download requests (alias or full string)",
		EnvVar:      "DATGRAB_USER_AGENT",
		Value:       "datgrab",
		Destination: &userAgent,
	},
	cli.StringFlag{
		Name:        "proxy, x",
		Usage:       "proxy url (http, https or socks5)",
		EnvVar:      "DATGRAB_PROXY",
		Destination: &proxyURL,
	},
	cli.StringFlag{
		Name:        "limit-rate, r",
		Usage:       "max download rate, e.g. 512KB or 1.5MB",
		Destination: &limitRate,
	},
	cli.IntFlag{
		Name:        "timeout",
		Usage:       "per-probe timeout in seconds",
		Value:       DEF_PROBE_TIMEOUT_SECS,
		Destination: &timeoutSecs,
	},
	cli.IntFlag{
		Name:        "max-redirects",
		Usage:       "maximum redirects to follow per request",
		Value:       DEF_MAX_REDIRECTS,
		Destination: &maxRedirects,
	},
	cli.BoolFlag{
		Name:        "quiet, q",
		Usage:       "suppress all output except errors",
		Destination: &quiet,
	},
	cli.BoolFlag{
		Name:        "no-history",
		Usage:       "do not record this run in the fetch history",
		Destination: &noHistory,
	},
	cli.StringFlag{
		Name:        "log-file",
		Usage:       "append engine logs to the given file",
		Destination: &logFile,
	},
}

func fetch(ctx *cli.Context) error {
	if datPath == "" {
		datPath = ctx.Args().First()
	}
	if datPath == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no DAT file provided"))
	}
	if listURL == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no listing url provided"))
	}
	if err := grablib.ValidateScheme(listURL); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	var rateLimit int64
	if limitRate != "" {
		rl, err := grablib.ParseSpeedLimit(limitRate)
		if err != nil {
			return common.PrintErrWithCmdHelp(ctx, err)
		}
		rateLimit = rl
	}

	l, lw, err := buildLogger()
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "open log file", err)
		return cli.NewExitError("", 1)
	}
	defer l.Close()

	m, err := dat.ParseFile(datPath)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "parse dat", err)
		return cli.NewExitError("", 1)
	}
	if outDir == "" {
		outDir = grablib.SanitizeFilename(m.System)
	}

	client, err := grablib.NewHTTPClient(proxyURL, maxRedirects, 0)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "proxy", err)
		return cli.NewExitError("", 1)
	}

	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("%s: %d entries wanted, fetching listing from %s", m.Label(), len(m.Games), listURL)
	entries, err := listing.Fetch(sctx, client, listURL)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "listing", err)
		return cli.NewExitError("", 1)
	}
	rec, err := listing.Match(m.Games, entries, listURL)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "match", err)
		return cli.NewExitError("", 1)
	}
	if !quiet {
		fmt.Printf("%s: %d wanted, %d found, %d missing\n",
			m.Label(), rec.Wanted, rec.Found(), len(rec.Missing))
	}
	if listOnly {
		printMissing(rec)
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) && !quiet
	sink := newProgressSink(interactive, rec.Found(), l)
	headers := make(grablib.Headers, 0)
	headers.InitOrUpdate(grablib.USER_AGENT_KEY, getUserAgent(userAgent))

	orch, err := grablib.NewOrchestrator(client, outDir, &grablib.OrchestratorOpts{
		Headers:      headers,
		Handlers:     sink.Handlers(),
		SkipExisting: skipExisting,
		ListOnly:     listOnly,
		ProbeTimeout: time.Duration(timeoutSecs) * time.Second,
		RateLimit:    rateLimit,
		Logger:       lw,
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "output dir", err)
		return cli.NewExitError("", 1)
	}

	started := time.Now()
	report, runErr := orch.Run(sctx, rec.Files)
	sink.Wait()

	if listOnly {
		return nil
	}
	if !quiet {
		printSummary(rec, report)
	}
	if !noHistory {
		recordHistory(l, m, rec, report, started)
	}
	if runErr != nil {
		return cli.NewExitError(runErr.Error(), 1)
	}
	if report.Failed() > 0 && report.Downloaded() == 0 {
		return cli.NewExitError("", 1)
	}
	return nil
}

func printMissing(rec *listing.Reconciliation) {
	if len(rec.Missing) == 0 {
		fmt.Println("every wanted entry is on the listing")
		return
	}
	for _, name := range rec.Missing {
		fmt.Printf("  missing: %s\n", name)
	}
}

func printSummary(rec *listing.Reconciliation, report *grablib.BatchReport) {
	fmt.Printf("\n%d downloaded, %d skipped, %d failed, %d missing\n",
		report.Downloaded(), report.Skipped(), report.Failed(), len(rec.Missing))
	for _, o := range report.FailedOutcomes() {
		fmt.Printf("  failed: %s: %s\n", o.File.Name(), o.Err.Error())
	}
	for _, name := range rec.Missing {
		fmt.Printf("  missing: %s\n", name)
	}
	if report.Cancelled {
		fmt.Println("interrupted; partial files kept, rerun to resume")
	}
}

// recordHistory persists the run, best effort. History must never turn
// a finished batch into a failure.
func recordHistory(l logger.Logger, m *dat.Manifest, rec *listing.Reconciliation, report *grablib.BatchReport, started time.Time) {
	store, err := hist.Open(grablib.GetPath(grablib.ConfigDir, hist.DefaultFileName))
	if err != nil {
		l.Warning("history: %s", err.Error())
		return
	}
	defer store.Close()

	files := make([]hist.FileRecord, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		fr := hist.FileRecord{
			Name:    o.File.Name(),
			Status:  o.Status.String(),
			Written: o.Written,
		}
		switch {
		case o.Err != nil:
			fr.Detail = o.Err.Error()
		case o.Status == grablib.StatusSkipped:
			fr.Detail = o.Reason.String()
		}
		files = append(files, fr)
	}
	_, err = store.RecordRun(hist.Run{
		System:      m.Label(),
		SourceURL:   listURL,
		Destination: outDir,
		Wanted:      rec.Wanted,
		Found:       rec.Found(),
		Missing:     len(rec.Missing),
		Downloaded:  report.Downloaded(),
		Skipped:     report.Skipped(),
		Failed:      report.Failed(),
		Cancelled:   report.Cancelled,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}, files)
	if err != nil {
		l.Warning("history: %s", err.Error())
	}
}

// buildLogger assembles the CLI logger from the quiet and log-file
// flags, plus a stdlib logger handed to the engine when a log file is
// in use.
func buildLogger() (logger.Logger, *log.Logger, error) {
	var sinks []logger.Logger
	if !quiet {
		sinks = append(sinks, logger.NewStandardLogger(
			log.New(os.Stderr, "", log.LstdFlags),
		))
	}
	var lw *log.Logger
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		lw = log.New(f, "", log.LstdFlags)
		sinks = append(sinks, &fileLogger{
			StandardLogger: logger.NewStandardLogger(lw),
			f:              f,
		})
	}
	switch len(sinks) {
	case 0:
		return logger.NewNopLogger(), lw, nil
	case 1:
		return sinks[0], lw, nil
	default:
		return logger.NewMultiLogger(sinks...), lw, nil
	}
}

// fileLogger closes its backing file on Close.
type fileLogger struct {
	*logger.StandardLogger
	f *os.File
}

func (l *fileLogger) Close() error {
	return l.f.Close()
}
