package grablib

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultMaxRedirects matches the http.Client default hop allowance.
const DefaultMaxRedirects = 10

var (
	ErrTooManyRedirects      = errors.New("redirect loop detected")
	ErrCrossProtocolRedirect = errors.New("cross-protocol redirect not supported")
)

// safeHeaders survive a cross-origin redirect; everything else is
// stripped so tokens in caller-supplied headers cannot leak to an
// unrelated host. Range stays: a resume must survive a mirror hop.
var safeHeaders = map[string]bool{
	"User-Agent":      true,
	"Accept":          true,
	"Accept-Language": true,
	"Accept-Encoding": true,
	"Range":           true,
}

// RedirectPolicy returns a CheckRedirect that bounds the hop count,
// refuses redirects leaving http/https, and strips non-safe headers
// when the redirect changes host.
func RedirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last url: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL.String())
		}
		if len(via) == 0 {
			return nil
		}
		prev := via[len(via)-1]
		if isHTTPScheme(prev.URL.Scheme) && !isHTTPScheme(req.URL.Scheme) {
			return fmt.Errorf("%w: %s -> %s",
				ErrCrossProtocolRedirect, prev.URL.Scheme, req.URL.Scheme)
		}
		if isCrossOrigin(prev.URL, req.URL) {
			for key := range req.Header {
				if !safeHeaders[http.CanonicalHeaderKey(key)] {
					req.Header.Del(key)
				}
			}
		}
		return nil
	}
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// isCrossOrigin compares hosts including any explicit port.
func isCrossOrigin(a, b *url.URL) bool {
	return a.Host != b.Host
}
