package grablib

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
)

var (
	ErrProbeUnavailable     = errors.New("remote size is unavailable")
	ErrRangeNotSupported    = errors.New("server does not support byte ranges")
	ErrContentRangeMismatch = errors.New("content range does not match requested offset")
	ErrBadContentRange      = errors.New("malformed content-range header")
	ErrUnexpectedStatus     = errors.New("unexpected response status")

	ErrTargetIsDirectory = errors.New("destination path is a directory")

	ErrUnsupportedURLScheme  = errors.New("unsupported url scheme")
	ErrInsufficientDiskSpace = errors.New("insufficient disk space")

	ErrCancelled = errors.New("cancelled by user")
)

// ErrorKind classifies transfer errors for reporting. The engine itself
// never retries; a file gets exactly one attempt per run, and the kind
// tells the caller what that attempt died of.
type ErrorKind int

const (
	// ErrorKindNone means no error.
	ErrorKindNone ErrorKind = iota
	// ErrorKindCancelled covers user interruption; it aborts the whole batch.
	ErrorKindCancelled
	// ErrorKindNetwork covers transient wire failures; the batch continues.
	ErrorKindNetwork
	// ErrorKindFilesystem covers local I/O failures; the batch continues.
	ErrorKindFilesystem
	// ErrorKindProtocol covers malformed or unexpected server behavior.
	ErrorKindProtocol
	// ErrorKindUnknown is everything else.
	ErrorKindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindCancelled:
		return "cancelled"
	case ErrorKindNetwork:
		return "network failure"
	case ErrorKindFilesystem:
		return "file i/o failure"
	case ErrorKindProtocol:
		return "protocol failure"
	default:
		return "unknown failure"
	}
}

// ClassifyError maps an error from a transfer attempt onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	// Cancellation first: it hides inside url.Error wrappers when the
	// request context dies mid-read.
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return ErrorKindCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindNetwork
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorKindNetwork
	}

	if errors.Is(err, ErrRangeNotSupported) ||
		errors.Is(err, ErrContentRangeMismatch) ||
		errors.Is(err, ErrBadContentRange) ||
		errors.Is(err, ErrUnexpectedStatus) {
		return ErrorKindProtocol
	}

	if errors.Is(err, ErrTargetIsDirectory) || errors.Is(err, io.ErrShortWrite) {
		return ErrorKindFilesystem
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorKindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrorKindNetwork
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return ErrorKindFilesystem
	}
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		return ErrorKindFilesystem
	}

	return ErrorKindUnknown
}
