package grablib

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseContentRange parses a Content-Range response header of the form
//
//	bytes <start>-<end>/<total>
//
// as sent with 206 responses. A total of "*" (unknown) is returned as
// -1. Anything else malformed yields ErrBadContentRange.
func ParseContentRange(value string) (start, end, total int64, err error) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "bytes ") {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
		return
	}
	v = strings.TrimPrefix(v, "bytes ")

	slash := strings.IndexByte(v, '/')
	if slash < 0 {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
		return
	}
	rangePart, totalPart := v[:slash], v[slash+1:]

	dash := strings.IndexByte(rangePart, '-')
	if dash < 0 {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
		return
	}
	start, err = strconv.ParseInt(rangePart[:dash], 10, 64)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
		return
	}
	end, err = strconv.ParseInt(rangePart[dash+1:], 10, 64)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
		return
	}

	if totalPart == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(totalPart, 10, 64)
		if err != nil {
			err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
			return
		}
	}

	if start < 0 || end < start {
		err = fmt.Errorf("%w: %q", ErrBadContentRange, value)
	}
	return
}
