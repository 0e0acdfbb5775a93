package grablib

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Fetcher performs the byte transfer for a planned file: a full GET for
// fresh fetches and restarts, a ranged GET for resumes. One Fetcher is
// shared across a batch; per-file state lives on the stack of Fetch.
type Fetcher struct {
	// Http client to be used for the whole process
	client *http.Client
	// Size of 1 chunk of bytes written during a single copy cycle
	chunk int
	// headers to use for http requests
	headers Headers
	// bandwidth cap in bytes per second, 0 = unlimited
	limit int64
	// Handlers to be triggered on transfer events
	handlers *Handlers
	l        *log.Logger
}

// Optional fields of Fetcher.
type FetcherOpts struct {
	Headers  Headers
	Handlers *Handlers
	// ChunkSize overrides the default copy chunk size.
	ChunkSize int
	// RateLimit caps the transfer speed in bytes per second.
	// 0 or negative means unlimited.
	RateLimit int64
	Logger    *log.Logger
}

// NewFetcher creates a fetcher around the given client. A nil opts is
// valid and yields defaults.
func NewFetcher(client *http.Client, opts *FetcherOpts) *Fetcher {
	if opts == nil {
		opts = &FetcherOpts{}
	}
	if opts.Handlers == nil {
		opts.Handlers = &Handlers{}
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = int(DEF_CHUNK_SIZE)
	}
	if opts.Headers == nil {
		opts.Headers = make(Headers, 0)
	}
	opts.Headers.InitOrUpdate(USER_AGENT_KEY, DEF_USER_AGENT)
	opts.Handlers.setDefault(opts.Logger)
	return &Fetcher{
		client:   client,
		chunk:    opts.ChunkSize,
		headers:  opts.Headers,
		limit:    opts.RateLimit,
		handlers: opts.Handlers,
		l:        opts.Logger,
	}
}

// Fetch executes plan for file, writing to destPath. It returns the
// number of bytes this attempt wrote to disk; on failure the bytes
// already written stay on disk so a later run can resume from them.
func (f *Fetcher) Fetch(ctx context.Context, file RemoteFile, plan TransferPlan, destPath string) (written int64, err error) {
	switch plan.Action {
	case ActionSkip:
		return
	case ActionResume:
		return f.fetchResume(ctx, file, plan, destPath)
	default:
		return f.fetchFull(ctx, file, plan, destPath, plan.Action)
	}
}

// fetchFull truncates destPath and streams the whole body into it.
// action distinguishes a first-time fetch from a restart in events.
func (f *Fetcher) fetchFull(ctx context.Context, file RemoteFile, plan TransferPlan, destPath string, action PlanAction) (written int64, err error) {
	dst, er := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if er != nil {
		err = er
		return
	}
	defer dst.Close()

	resp, er := f.makeRequest(ctx, file.Url)
	if er != nil {
		err = er
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		return
	}

	total := plan.RemoteSize
	if resp.ContentLength >= 0 {
		total = ContentLength(resp.ContentLength)
	}

	wlog(f.l, "%s: %s (%s)", file.Name(), action, total)
	f.handlers.TransferStartHandler(file.Name(), action, 0, total)
	written, err = f.stream(ctx, resp.Body, dst, file.Name(), 0, total)
	if err != nil {
		f.handlers.ErrorHandler(file.Name(), err)
		return
	}
	f.handlers.TransferCompleteHandler(file.Name(), written)
	return
}

// fetchResume appends to destPath from plan.FromOffset using a byte
// range request. A server that does not honor the range (a plain 200,
// a 416, a missing or mismatched Content-Range) downgrades the attempt
// to restart semantics instead of corrupting the file with misplaced
// bytes.
func (f *Fetcher) fetchResume(ctx context.Context, file RemoteFile, plan TransferPlan, destPath string) (written int64, err error) {
	dst, er := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if er != nil {
		err = er
		return
	}

	resp, er := f.makeRequest(ctx, file.Url, rangeHeader(plan.FromOffset, 0))
	if er != nil {
		dst.Close()
		err = er
		return
	}

	fallback := func(reason error) (int64, error) {
		resp.Body.Close()
		dst.Close()
		wlog(f.l, "%s: range not honored (%s), restarting", file.Name(), reason)
		f.handlers.RangeFallbackHandler(file.Name(), reason)
		return f.fetchFull(ctx, file, plan, destPath, ActionRestart)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return fallback(ErrRangeNotSupported)
	case http.StatusRequestedRangeNotSatisfiable:
		return fallback(fmt.Errorf("%w: %s", ErrRangeNotSupported, resp.Status))
	default:
		err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		resp.Body.Close()
		dst.Close()
		return
	}

	cr := resp.Header.Get("Content-Range")
	if cr == "" {
		return fallback(fmt.Errorf("%w: 206 without content-range", ErrBadContentRange))
	}
	start, _, crTotal, er := ParseContentRange(cr)
	if er != nil {
		return fallback(er)
	}
	if start != plan.FromOffset {
		return fallback(fmt.Errorf("%w: requested %d, got %d", ErrContentRangeMismatch, plan.FromOffset, start))
	}

	defer resp.Body.Close()
	defer dst.Close()

	total := plan.RemoteSize
	if crTotal >= 0 {
		total = ContentLength(crTotal)
	}

	wlog(f.l, "%s: resuming from %d (%s)", file.Name(), plan.FromOffset, total)
	f.handlers.TransferStartHandler(file.Name(), ActionResume, plan.FromOffset, total)
	written, err = f.stream(ctx, resp.Body, dst, file.Name(), plan.FromOffset, total)
	if err != nil {
		f.handlers.ErrorHandler(file.Name(), err)
		return
	}
	f.handlers.TransferCompleteHandler(file.Name(), written)
	return
}

// stream copies src to dst in fixed-size chunks, reporting every chunk
// write before the next read. initial is the on-disk offset the copy
// starts at; the reported position is initial plus bytes written so
// far, clamped to the total when the total is known. Cancellation is
// honored between chunks; whatever reached the disk stays there.
func (f *Fetcher) stream(ctx context.Context, src io.Reader, dst *os.File, name string, initial int64, total ContentLength) (written int64, err error) {
	if f.limit > 0 {
		src = NewRateLimitedReader(src, f.limit)
	}
	buf := make([]byte, f.chunk)
	for {
		select {
		case <-ctx.Done():
			err = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			return
		default:
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if ew == nil {
					ew = io.ErrShortWrite
				}
			}
			written += int64(nw)
			current := initial + written
			if !total.IsUnknown() && current > total.v() {
				current = total.v()
			}
			f.handlers.TransferProgressHandler(name, nw, current, total)
			if ew != nil {
				err = ew
				return
			}
			if nr != nw {
				err = io.ErrShortWrite
				return
			}
		}
		if er != nil {
			if er != io.EOF {
				err = er
				return
			}
			break
		}
	}
	if v := total.v(); v >= 0 && initial+written < v {
		wlog(f.l, "%s: body ended early | expected %d bytes, got %d", name, v-initial, written)
		err = io.ErrUnexpectedEOF
	}
	return
}

func (f *Fetcher) makeRequest(ctx context.Context, url string, hdrs ...Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	header := req.Header
	f.headers.Set(header)
	for _, hdr := range hdrs {
		hdr.Set(header)
	}
	return f.client.Do(req)
}

// rangeHeader builds a Range header covering ioff through foff; a zero
// foff leaves the range open-ended ("bytes=<ioff>-").
func rangeHeader(ioff, foff int64) Header {
	str := func(i int64) string {
		return strconv.FormatInt(i, 10)
	}
	var b strings.Builder
	b.WriteString("bytes=")
	b.WriteString(str(ioff))
	b.WriteRune('-')
	if foff != 0 {
		b.WriteString(str(foff))
	}
	return Header{"Range", b.String()}
}
