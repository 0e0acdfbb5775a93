package grablib

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// RateLimitedReader throttles an io.Reader to a byte-per-second cap
// with a token bucket. The engine streams one body at a time, so the
// reader is not safe for concurrent use and does not need to be.
type RateLimitedReader struct {
	r      io.Reader
	limit  int64
	tokens int64
	last   time.Time
}

// NewRateLimitedReader wraps r with a cap of limit bytes per second.
// A limit of 0 or below disables throttling. The bucket starts empty,
// so there is no initial burst.
func NewRateLimitedReader(r io.Reader, limit int64) *RateLimitedReader {
	return &RateLimitedReader{
		r:     r,
		limit: limit,
		last:  time.Now(),
	}
}

func (r *RateLimitedReader) refill() {
	now := time.Now()
	r.tokens += int64(float64(r.limit) * now.Sub(r.last).Seconds())
	r.last = now
	if r.tokens > r.limit {
		// at most one second worth of burst
		r.tokens = r.limit
	}
}

func (r *RateLimitedReader) Read(b []byte) (n int, err error) {
	if r.limit <= 0 {
		return r.r.Read(b)
	}
	r.refill()

	want := int64(len(b))
	if want > r.limit {
		want = r.limit
	}
	if r.tokens < want {
		needed := want - r.tokens
		time.Sleep(time.Duration(float64(time.Second) * float64(needed) / float64(r.limit)))
		r.refill()
	}

	size := want
	if r.tokens > 0 && size > r.tokens {
		size = r.tokens
	}
	if size <= 0 {
		size = 1
	}
	n, err = r.r.Read(b[:size])
	r.tokens -= int64(n)
	return
}

// ParseSpeedLimit parses a human-readable rate like "512KB", "1.5MB"
// or a plain byte count, returning bytes per second. "0" means
// unlimited.
func ParseSpeedLimit(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty speed limit")
	}

	numStr, unit := s, ""
	for i, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			numStr, unit = s[:i], s[i:]
			break
		}
	}
	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid speed limit: %q", s)
	}

	var mult int64
	switch unit {
	case "", "B":
		mult = B
	case "K", "KB":
		mult = KB
	case "M", "MB":
		mult = MB
	case "G", "GB":
		mult = GB
	default:
		return 0, fmt.Errorf("invalid speed limit unit: %q (use B, KB, MB or GB)", unit)
	}
	return int64(num * float64(mult)), nil
}
