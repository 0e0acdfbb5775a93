package cmd

const (
	DEF_PROBE_TIMEOUT_SECS = 30
	DEF_MAX_REDIRECTS      = 10
	DEF_HISTORY_LIMIT      = 20
)

const DESCRIPTION = `
Datgrab reconciles a DAT catalog manifest against a remote
directory listing and downloads the matching files with
resumable, size-checked transfers. Files are fetched one at
a time; interrupted transfers continue from where they
stopped on the next run.
`

const (
	FetchDescription = `The fetch command parses a DAT file, scrapes the remote
directory listing, matches wanted entries against available
files and downloads them sequentially into the output
directory. Existing files are skipped, partial files are
resumed, stale files are refetched.

Example:
        datgrab fetch -i nointro.dat -u https://files.example.org/no-intro/gb/

`
	InfoDescription = `The info command probes the entered url and prints the
basic file info like name, size, range support and the
final url after redirects.

Example:
        datgrab info https://domain.com/file.zip

`
	HistoryDescription = `The history command displays past fetch runs with their
wanted/found/missing and downloaded/skipped/failed counts.

Example:
        datgrab history

`
	FlushDescription = `The flush command deletes the fetch history for the
current user.

Example:
        datgrab flush

`
)
