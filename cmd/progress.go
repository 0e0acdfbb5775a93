package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vbauerster/mpb/v8"

	"github.com/datgrab/datgrab/cmd/common"
	"github.com/datgrab/datgrab/pkg/grablib"
	"github.com/datgrab/datgrab/pkg/logger"
)

// progressSink renders engine events. Interactive mode draws one mpb
// bar per transfer (the batch is strictly sequential, so there is never
// more than one); otherwise it degrades to plain logger lines, so a
// broken or absent terminal can never abort a transfer.
type progressSink struct {
	l           logger.Logger
	interactive bool
	total       int
	digits      int

	index int
	p     *mpb.Progress
	bar   *mpb.Bar
	last  time.Time
}

func newProgressSink(interactive bool, total int, l logger.Logger) *progressSink {
	digits := len(strconv.Itoa(total))
	if total <= 0 {
		digits = 1
	}
	return &progressSink{l: l, interactive: interactive, total: total, digits: digits}
}

// prefix renders the per-file counter, e.g. "[007/123] Tetris (World)".
func (s *progressSink) prefix(name string) string {
	return fmt.Sprintf("[%0*d/%d] %s", s.digits, s.index, s.total, name)
}

// closeBar finishes the active bar, completing it when done is true,
// and waits for the render loop so later plain prints stay intact.
func (s *progressSink) closeBar(done bool) {
	if s.bar == nil {
		return
	}
	if done {
		s.bar.SetTotal(-1, true)
	} else {
		s.bar.Abort(false)
	}
	s.p.Wait()
	s.p, s.bar = nil, nil
}

// Wait flushes any bar still on screen, e.g. after a cancellation.
func (s *progressSink) Wait() {
	s.closeBar(false)
}

func (s *progressSink) Handlers() *grablib.Handlers {
	return &grablib.Handlers{
		CheckingHandler: func(name string) {
			s.index++
			if !s.interactive {
				s.l.Info("%s checking...", s.prefix(name))
			}
		},
		SkipHandler: func(name string, reason grablib.SkipReason) {
			if s.interactive {
				fmt.Printf("%s skipped (%s)\n", s.prefix(name), reason)
				return
			}
			s.l.Info("%s skipped (%s)", s.prefix(name), reason)
		},
		TransferStartHandler: func(name string, action grablib.PlanAction, from int64, total grablib.ContentLength) {
			if !s.interactive {
				s.l.Info("%s %s (%s)", s.prefix(name), transferVerb(action, from), total)
				return
			}
			var barTotal int64
			if !total.IsUnknown() {
				barTotal = int64(total)
			}
			s.p = mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(30*time.Millisecond))
			s.bar = common.InitBar(s.p, s.prefix(name), barTotal, from)
			s.last = time.Now()
		},
		TransferProgressHandler: func(name string, nwritten int, current int64, total grablib.ContentLength) {
			if s.bar == nil {
				return
			}
			now := time.Now()
			s.bar.EwmaSetCurrent(current, now.Sub(s.last))
			s.last = now
		},
		RangeFallbackHandler: func(name string, err error) {
			if s.interactive {
				s.closeBar(false)
				fmt.Printf("%s range not honored, restarting: %s\n", s.prefix(name), err.Error())
				return
			}
			s.l.Warning("%s range not honored, restarting: %s", s.prefix(name), err.Error())
		},
		TransferCompleteHandler: func(name string, written int64) {
			if s.interactive {
				s.closeBar(true)
				return
			}
			s.l.Info("%s downloaded (%s)", s.prefix(name), grablib.ContentLength(written))
		},
		ErrorHandler: func(name string, err error) {
			if s.interactive {
				s.closeBar(false)
				fmt.Printf("%s error: %s\n", s.prefix(name), err.Error())
				return
			}
			s.l.Error("%s %s", s.prefix(name), err.Error())
		},
	}
}

func transferVerb(action grablib.PlanAction, from int64) string {
	switch action {
	case grablib.ActionResume:
		return fmt.Sprintf("resuming from %s", grablib.ContentLength(from))
	case grablib.ActionRestart:
		return "restarting"
	default:
		return "downloading"
	}
}
