package grablib

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// newBatchServer serves a set of files by path with range support and
// counts GET requests, so tests can assert that skips issue none.
func newBatchServer(t *testing.T, files map[string][]byte, gets *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet && gets != nil {
			gets.Add(1)
		}
		w.Header().Set("Accept-Ranges", "bytes")
		rng := r.Header.Get("Range")
		if rng == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				_, _ = w.Write(content)
			}
			return
		}
		start, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(rng, "bytes="), "-"))
		if start < 0 || start >= len(content) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		chunk := content[start:]
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.Header().Set("Content-Length", strconv.Itoa(len(chunk)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(chunk)
	}))
}

func batchFiles(srv *httptest.Server, names ...string) []RemoteFile {
	files := make([]RemoteFile, 0, len(names))
	for _, n := range names {
		files = append(files, RemoteFile{
			DisplayName: strings.TrimSuffix(n, filepath.Ext(n)),
			FileName:    n,
			Url:         srv.URL + "/" + n,
		})
	}
	return files
}

func TestOrchestratorFreshBatch(t *testing.T) {
	contents := map[string][]byte{
		"a.bin": testContent(10 * 1024),
		"b.bin": testContent(20 * 1024),
		"c.bin": testContent(5 * 1024),
	}
	srv := newBatchServer(t, contents, nil)
	defer srv.Close()

	dest := t.TempDir()
	o, err := NewOrchestrator(srv.Client(), dest, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(context.Background(), batchFiles(srv, "a.bin", "b.bin", "c.bin"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Downloaded() != 3 || report.Skipped() != 0 || report.Failed() != 0 {
		t.Fatalf("report = %d/%d/%d, want 3/0/0",
			report.Downloaded(), report.Skipped(), report.Failed())
	}
	for name, content := range contents {
		got, er := os.ReadFile(filepath.Join(dest, name))
		if er != nil {
			t.Fatalf("ReadFile %s: %v", name, er)
		}
		if !bytes.Equal(got, content) {
			t.Fatalf("%s: content mismatch", name)
		}
	}
}

// A second identical run classifies every file as already satisfied
// and never opens a GET.
func TestOrchestratorIdempotent(t *testing.T) {
	contents := map[string][]byte{
		"a.bin": testContent(10 * 1024),
		"b.bin": testContent(20 * 1024),
	}
	var gets atomic.Int64
	srv := newBatchServer(t, contents, &gets)
	defer srv.Close()

	dest := t.TempDir()
	files := batchFiles(srv, "a.bin", "b.bin")
	o, err := NewOrchestrator(srv.Client(), dest, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := o.Run(context.Background(), files); err != nil {
		t.Fatalf("first run: %v", err)
	}

	gets.Store(0)
	report, err := o.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Skipped() != 2 || report.Downloaded() != 0 {
		t.Fatalf("second run = %d skipped %d downloaded, want 2/0",
			report.Skipped(), report.Downloaded())
	}
	for _, o := range report.Outcomes {
		if o.Reason != SkipAlreadySatisfied {
			t.Fatalf("%s skipped for %q, want already satisfied", o.File.Name(), o.Reason)
		}
	}
	if n := gets.Load(); n != 0 {
		t.Fatalf("second run issued %d GETs", n)
	}
}

// A partial local file picks up where the last run stopped.
func TestOrchestratorResumesPartial(t *testing.T) {
	content := testContent(40 * 1024)
	srv := newBatchServer(t, map[string][]byte{"a.bin": content}, nil)
	defer srv.Close()

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "a.bin"), content[:12*1024], 0666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var resumedFrom int64 = -1
	o, err := NewOrchestrator(srv.Client(), dest, &OrchestratorOpts{
		Handlers: &Handlers{
			TransferStartHandler: func(name string, action PlanAction, from int64, total ContentLength) {
				if action == ActionResume {
					resumedFrom = from
				}
			},
		},
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(context.Background(), batchFiles(srv, "a.bin"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Downloaded() != 1 {
		t.Fatalf("downloaded = %d, want 1", report.Downloaded())
	}
	if resumedFrom != 12*1024 {
		t.Fatalf("resumed from %d, want %d", resumedFrom, 12*1024)
	}
	got, _ := os.ReadFile(filepath.Join(dest, "a.bin"))
	if !bytes.Equal(got, content) {
		t.Fatalf("resumed content mismatch")
	}
}

// When the probe cannot learn a size and the file is already present,
// the orchestrator keeps the local copy and issues no GET.
func TestOrchestratorUnknownSizeLocalPresent(t *testing.T) {
	var gets atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		// no Content-Length ever
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "a.bin"), []byte("partial maybe"), 0666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	o, err := NewOrchestrator(srv.Client(), dest, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(context.Background(), []RemoteFile{{FileName: "a.bin", Url: srv.URL + "/a.bin"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped() != 1 {
		t.Fatalf("skipped = %d, want 1", report.Skipped())
	}
	if report.Outcomes[0].Reason != SkipRemoteSizeUnknown {
		t.Fatalf("reason = %q", report.Outcomes[0].Reason)
	}
	if n := gets.Load(); n != 0 {
		t.Fatalf("skip issued %d GETs", n)
	}
}

func TestOrchestratorSkipExisting(t *testing.T) {
	content := testContent(8 * 1024)
	srv := newBatchServer(t, map[string][]byte{"a.bin": content}, nil)
	defer srv.Close()

	dest := t.TempDir()
	// one stale byte is enough for skip-existing
	if err := os.WriteFile(filepath.Join(dest, "a.bin"), []byte("x"), 0666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	o, err := NewOrchestrator(srv.Client(), dest, &OrchestratorOpts{SkipExisting: true})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(context.Background(), batchFiles(srv, "a.bin"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped() != 1 || report.Outcomes[0].Reason != SkipExistingRequested {
		t.Fatalf("outcome = %+v, want user-requested skip", report.Outcomes[0])
	}
	fi, _ := os.Stat(filepath.Join(dest, "a.bin"))
	if fi.Size() != 1 {
		t.Fatalf("skip-existing touched the local file")
	}
}

// One failed file never aborts the batch; the files after it still run.
func TestOrchestratorContinuesAfterFailure(t *testing.T) {
	contents := map[string][]byte{
		"a.bin": testContent(4 * 1024),
		"c.bin": testContent(4 * 1024),
	}
	srv := newBatchServer(t, contents, nil)
	defer srv.Close()

	dest := t.TempDir()
	o, err := NewOrchestrator(srv.Client(), dest, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	files := batchFiles(srv, "a.bin", "missing.bin", "c.bin")
	report, err := o.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(report.Outcomes))
	}
	if report.Downloaded() != 2 || report.Failed() != 1 {
		t.Fatalf("report = %d downloaded %d failed, want 2/1",
			report.Downloaded(), report.Failed())
	}
	if report.Outcomes[1].Status != StatusFailed {
		t.Fatalf("middle outcome = %s, want failed", report.Outcomes[1].Status)
	}
	if report.Outcomes[2].Status != StatusDownloaded {
		t.Fatalf("file after the failure was not attempted")
	}
}

func TestOrchestratorListOnly(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	o, err := NewOrchestrator(srv.Client(), t.TempDir(), &OrchestratorOpts{ListOnly: true})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(context.Background(), []RemoteFile{{FileName: "a.bin", Url: srv.URL + "/a.bin"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 0 {
		t.Fatalf("list-only produced %d outcomes", len(report.Outcomes))
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("list-only issued %d requests", n)
	}
}

// Cancellation terminates the whole batch, not just the current file.
func TestOrchestratorCancelAbortsBatch(t *testing.T) {
	contents := map[string][]byte{
		"a.bin": testContent(64 * 1024),
		"b.bin": testContent(64 * 1024),
		"c.bin": testContent(64 * 1024),
	}
	srv := newBatchServer(t, contents, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o, err := NewOrchestrator(srv.Client(), t.TempDir(), &OrchestratorOpts{
		Handlers: &Handlers{
			TransferProgressHandler: func(name string, nwritten int, current int64, total ContentLength) {
				cancel() // first chunk of the first file
			},
		},
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	report, err := o.Run(ctx, batchFiles(srv, "a.bin", "b.bin", "c.bin"))
	if err == nil {
		t.Fatalf("Run succeeded despite cancellation")
	}
	if !report.Cancelled {
		t.Fatalf("report not marked cancelled")
	}
	if len(report.Outcomes) >= 3 {
		t.Fatalf("all files attempted after cancellation")
	}
}

func TestOrchestratorCreatesDestDir(t *testing.T) {
	content := testContent(1024)
	srv := newBatchServer(t, map[string][]byte{"a.bin": content}, nil)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "out")
	if _, err := NewOrchestrator(srv.Client(), dest, nil); err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if fi, err := os.Stat(dest); err != nil || !fi.IsDir() {
		t.Fatalf("destination directory not created: %v", err)
	}
}
