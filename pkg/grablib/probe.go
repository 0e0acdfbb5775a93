package grablib

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// RemoteInfo holds what a metadata probe could learn about a resource.
type RemoteInfo struct {
	// FileName is the name suggested by Content-Disposition, or the
	// last URL path segment, sanitized. Empty if neither yields one.
	FileName string
	// FinalURL is the URL after following redirects.
	FinalURL string
	// Size is the advertised byte length, ContentLengthUnknown when the
	// server sent none.
	Size ContentLength
	// AcceptRanges reports whether the server advertises byte-range
	// support. Absence of the header does not prove the opposite; the
	// fetch path verifies the actual response.
	AcceptRanges bool
}

// ProbeInfo issues a metadata-only HEAD request against url. Redirects
// are followed by the client's redirect policy. Non-2xx statuses are
// reported as ErrProbeUnavailable.
func ProbeInfo(ctx context.Context, client *http.Client, url string, headers Headers) (info *RemoteInfo, err error) {
	req, er := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if er != nil {
		err = er
		return
	}
	headers.Set(req.Header)
	resp, er := client.Do(req)
	if er != nil {
		err = er
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("%w: %s", ErrProbeUnavailable, resp.Status)
		return
	}
	info = &RemoteInfo{
		FileName: parseFileName(resp.Request, resp.Header.Get("Content-Disposition")),
		FinalURL: resp.Request.URL.String(),
		Size:     ContentLengthUnknown,
	}
	if resp.ContentLength >= 0 {
		info.Size = ContentLength(resp.ContentLength)
	}
	if strings.Contains(resp.Header.Get("Accept-Ranges"), "bytes") {
		info.AcceptRanges = true
	}
	return
}

// ProbeSize learns the remote byte length of url, failing soft: any
// network error, non-2xx status or absent length header yields
// ContentLengthUnknown. The error return is advisory; callers log it as
// a warning and carry on, since the remote size only steers planning.
func ProbeSize(ctx context.Context, client *http.Client, url string, headers Headers) (size ContentLength, err error) {
	size = ContentLengthUnknown
	info, er := ProbeInfo(ctx, client, url, headers)
	if er != nil {
		err = er
		return
	}
	size = info.Size
	return
}
