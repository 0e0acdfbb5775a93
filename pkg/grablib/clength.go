package grablib

import "strings"

type ContentLength int64

// ContentLengthUnknown is the sentinel for a remote size the server
// did not (or could not) report.
const ContentLengthUnknown ContentLength = -1

func (c ContentLength) v() (clen int64) {
	return int64(c)
}

func (c ContentLength) String() (clen string) {
	if c.IsUnknown() {
		return "unknown"
	}
	clen = c.Format(
		" ",
		SizeOptionTB,
		SizeOptionGB,
		SizeOptionMB,
		SizeOptionKB,
	)
	if clen == "" {
		clen = c.Format("", SizeOptionBy)
	}
	return
}

func (c ContentLength) Format(sep string, sizeOpts ...SizeOption) (clen string) {
	b := strings.Builder{}
	n := len(sizeOpts) - 1
	for i, opt := range sizeOpts {
		siz, rem := opt.Get(c)
		c = ContentLength(rem)
		if siz == 0 {
			continue
		}
		fl := opt.StringFrom(siz)
		b.WriteString(fl)
		if i == n {
			break
		}
		b.WriteString(sep)
	}
	clen = b.String()
	return
}

func (c ContentLength) IsUnknown() (unknown bool) {
	return c.v() < 0
}
