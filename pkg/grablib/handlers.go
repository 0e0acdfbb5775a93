package grablib

import "log"

type (
	// CheckingHandlerFunc fires when a file's reconciliation begins,
	// before the local stat and the size probe.
	CheckingHandlerFunc func(name string)
	// SkipHandlerFunc fires when planning decides to leave a file alone.
	SkipHandlerFunc func(name string, reason SkipReason)
	// TransferStartHandlerFunc fires once per transfer, after the plan
	// is known and the response is open. from is the resume offset (0
	// for fresh fetches and restarts); total may be unknown.
	TransferStartHandlerFunc func(name string, action PlanAction, from int64, total ContentLength)
	// TransferProgressHandlerFunc fires after every chunk write. nwritten
	// is the size of the chunk just written, current the cumulative
	// on-disk position including any resume offset.
	TransferProgressHandlerFunc func(name string, nwritten int, current int64, total ContentLength)
	// TransferCompleteHandlerFunc fires when a transfer finishes cleanly
	// with the number of bytes this attempt wrote.
	TransferCompleteHandlerFunc func(name string, written int64)
	// RangeFallbackHandlerFunc fires when a resume had to be downgraded
	// to a restart because the server did not honor the byte range.
	RangeFallbackHandlerFunc func(name string, err error)
	// ErrorHandlerFunc fires when a file's attempt fails.
	ErrorHandlerFunc func(name string, err error)
)

// Handlers carries the event callbacks invoked during a batch. All
// fields are optional; setDefault fills the gaps so the engine never
// nil-checks before calling.
type Handlers struct {
	CheckingHandler         CheckingHandlerFunc
	SkipHandler             SkipHandlerFunc
	TransferStartHandler    TransferStartHandlerFunc
	TransferProgressHandler TransferProgressHandlerFunc
	TransferCompleteHandler TransferCompleteHandlerFunc
	RangeFallbackHandler    RangeFallbackHandlerFunc
	ErrorHandler            ErrorHandlerFunc
}

func (h *Handlers) setDefault(l *log.Logger) {
	if h.CheckingHandler == nil {
		h.CheckingHandler = func(name string) {}
	}
	if h.SkipHandler == nil {
		h.SkipHandler = func(name string, reason SkipReason) {}
	}
	if h.TransferStartHandler == nil {
		h.TransferStartHandler = func(name string, action PlanAction, from int64, total ContentLength) {}
	}
	if h.TransferProgressHandler == nil {
		h.TransferProgressHandler = func(name string, nwritten int, current int64, total ContentLength) {}
	}
	if h.TransferCompleteHandler == nil {
		h.TransferCompleteHandler = func(name string, written int64) {}
	}
	if h.RangeFallbackHandler == nil {
		h.RangeFallbackHandler = func(name string, err error) {
			wlog(l, "%s: range not honored, restarting: %s", name, err.Error())
		}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(name string, err error) {
			wlog(l, "%s: Error: %s", name, err.Error())
		}
	} else {
		errHandler := h.ErrorHandler
		h.ErrorHandler = func(name string, err error) {
			wlog(l, "%s: Error: %s", name, err.Error())
			errHandler(name, err)
		}
	}
}
