// Package listing fetches and parses directory-style HTML listings and
// reconciles them against the wanted entries of a catalog manifest.
package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/datgrab/datgrab/pkg/grablib"
)

// Listing pages sit behind the same rate limits as the files; the
// headers mimic a browser the way the archive expects.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"

	fetchTimeout = 60 * time.Second
	maxRetries   = 4
)

// Fetch downloads the listing page at url and returns its parsed rows.
// Transient failures (429, 5xx, wire errors) are retried with bounded
// exponential backoff; anything else fails immediately. The engine
// itself never retries, only this collaborator does.
func Fetch(ctx context.Context, client *http.Client, url string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	operation := func() ([]Entry, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", browserAccept)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("%w: %s", grablib.ErrUnexpectedStatus, resp.Status)
		default:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", grablib.ErrUnexpectedStatus, resp.Status))
		}

		entries, err := Parse(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return entries, nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.RetryWithData(operation, bo)
}
