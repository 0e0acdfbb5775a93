package grablib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// RemoteFile is one resolved entry of the batch: a catalog display
// name, the exact remote file name, and the download URL. Identity is
// the URL; the struct is immutable once resolved upstream.
type RemoteFile struct {
	DisplayName string `json:"display_name"`
	FileName    string `json:"file_name"`
	Url         string `json:"url"`
}

// Name returns the label used in events and logs: the catalog display
// name when one is known, the remote file name otherwise.
func (f RemoteFile) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.FileName
}

// OutcomeStatus is the terminal state of one file's attempt. Every
// file of a batch ends in exactly one of the three.
type OutcomeStatus int

const (
	StatusDownloaded OutcomeStatus = iota
	StatusSkipped
	StatusFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// TransferOutcome records how one file's attempt ended. Outcomes are
// append-only; the batch report never rewrites one.
type TransferOutcome struct {
	File    RemoteFile
	Status  OutcomeStatus
	Reason  SkipReason // set only for StatusSkipped
	Written int64      // bytes this attempt put on disk
	Err     error      // set only for StatusFailed
}

// BatchReport is the ordered record of a finished (or interrupted)
// batch. Outcomes appear in input order; files after an interruption
// point were never attempted and have no outcome.
type BatchReport struct {
	Outcomes  []TransferOutcome
	Cancelled bool
}

func (r *BatchReport) count(s OutcomeStatus) (n int) {
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return
}

// Downloaded returns the number of files fetched to completion.
func (r *BatchReport) Downloaded() int { return r.count(StatusDownloaded) }

// Skipped returns the number of files planning left untouched.
func (r *BatchReport) Skipped() int { return r.count(StatusSkipped) }

// Failed returns the number of files whose attempt ended in an error.
func (r *BatchReport) Failed() int { return r.count(StatusFailed) }

// FailedOutcomes returns the failed outcomes in input order.
func (r *BatchReport) FailedOutcomes() (failed []TransferOutcome) {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return
}

// Orchestrator drives the sequential per-file loop: inspect and probe,
// plan, fetch, record. One file finishes (or fails) before the next
// begins; there is no worker pool, matching the one-bar-at-a-time
// contract of the display and whatever rate limits the server has.
type Orchestrator struct {
	client       *http.Client
	fetcher      *Fetcher
	handlers     *Handlers
	headers      Headers
	destDir      string
	skipExisting bool
	listOnly     bool
	probeTimeout time.Duration
	l            *log.Logger
}

// Optional fields of Orchestrator.
type OrchestratorOpts struct {
	Headers  Headers
	Handlers *Handlers
	// SkipExisting skips any file already present locally, whatever
	// its size.
	SkipExisting bool
	// ListOnly disables probing, planning and fetching entirely; Run
	// produces zero outcomes.
	ListOnly bool
	// ProbeTimeout bounds each size probe. Defaults to 30s.
	ProbeTimeout time.Duration
	// ChunkSize and RateLimit are passed through to the fetcher.
	ChunkSize int
	RateLimit int64
	Logger    *log.Logger
}

// NewOrchestrator prepares a batch writing into destDir, which is
// created if absent. A nil opts is valid and yields defaults.
func NewOrchestrator(client *http.Client, destDir string, opts *OrchestratorOpts) (o *Orchestrator, err error) {
	if opts == nil {
		opts = &OrchestratorOpts{}
	}
	if opts.Handlers == nil {
		opts.Handlers = &Handlers{}
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DEF_PROBE_TIMEOUT
	}
	if opts.Headers == nil {
		opts.Headers = make(Headers, 0)
	}
	opts.Headers.InitOrUpdate(USER_AGENT_KEY, DEF_USER_AGENT)
	if err = os.MkdirAll(destDir, 0755); err != nil {
		return
	}
	fetcher := NewFetcher(client, &FetcherOpts{
		Headers:   opts.Headers,
		Handlers:  opts.Handlers,
		ChunkSize: opts.ChunkSize,
		RateLimit: opts.RateLimit,
		Logger:    opts.Logger,
	})
	o = &Orchestrator{
		client:       client,
		fetcher:      fetcher,
		handlers:     opts.Handlers,
		headers:      opts.Headers,
		destDir:      destDir,
		skipExisting: opts.SkipExisting,
		listOnly:     opts.ListOnly,
		probeTimeout: opts.ProbeTimeout,
		l:            opts.Logger,
	}
	return
}

// Run processes files in order. Every attempted file ends in exactly
// one outcome; a failed file never aborts the batch. Cancellation does
// abort it: the current transfer stops at the next chunk boundary,
// partial bytes stay on disk, remaining files are not attempted, and
// Run returns ErrCancelled alongside the report so far.
func (o *Orchestrator) Run(ctx context.Context, files []RemoteFile) (report *BatchReport, err error) {
	report = &BatchReport{}
	if o.listOnly {
		return
	}
	for _, file := range files {
		if ctx.Err() != nil {
			report.Cancelled = true
			err = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			return
		}
		outcome := o.runOne(ctx, file)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == StatusFailed && ClassifyError(outcome.Err) == ErrorKindCancelled {
			report.Cancelled = true
			err = outcome.Err
			return
		}
	}
	return
}

// runOne takes a single file from Pending to a terminal outcome. Local
// state is inspected fresh here, never carried over from an earlier
// attempt, since the disk may have changed underneath us.
func (o *Orchestrator) runOne(ctx context.Context, file RemoteFile) TransferOutcome {
	o.handlers.CheckingHandler(file.Name())

	destPath := GetPath(o.destDir, SanitizeFilename(file.FileName))
	local, err := InspectLocal(destPath)
	if err != nil {
		return TransferOutcome{File: file, Status: StatusFailed, Err: err}
	}

	remote := o.probe(ctx, file)
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		return TransferOutcome{File: file, Status: StatusFailed, Err: err}
	}

	plan := Plan(local, remote, o.skipExisting)
	if plan.Action == ActionSkip {
		wlog(o.l, "%s: skipped (%s)", file.Name(), plan.Reason)
		o.handlers.SkipHandler(file.Name(), plan.Reason)
		return TransferOutcome{File: file, Status: StatusSkipped, Reason: plan.Reason}
	}

	if !remote.IsUnknown() {
		if er := CheckDiskSpace(o.destDir, remote.v()-local.Size); er != nil {
			// advisory only; the write may still land on another mount
			wlog(o.l, "%s: %s", file.Name(), er.Error())
		}
	}

	written, err := o.fetcher.Fetch(ctx, file, plan, destPath)
	if err != nil {
		return TransferOutcome{File: file, Status: StatusFailed, Written: written, Err: err}
	}
	return TransferOutcome{File: file, Status: StatusDownloaded, Written: written}
}

// probe learns the remote size under its own deadline, failing soft:
// planning treats an unreachable size as unknown, it never kills the
// file's attempt.
func (o *Orchestrator) probe(ctx context.Context, file RemoteFile) ContentLength {
	pctx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()
	size, err := ProbeSize(pctx, o.client, file.Url, o.headers)
	if err != nil && !errors.Is(err, context.Canceled) {
		wlog(o.l, "%s: size probe failed: %s", file.Name(), err.Error())
	}
	return size
}
