package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli"

	"github.com/datgrab/datgrab/cmd/common"
	"github.com/datgrab/datgrab/pkg/grablib"
)

var infoFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "user-agent, A",
		Usage:       "user agent for the probe (alias or full string)",
		EnvVar:      "DATGRAB_USER_AGENT",
		Value:       "datgrab",
		Destination: &userAgent,
	},
	cli.StringFlag{
		Name:        "proxy, x",
		Usage:       "proxy url (http, https or socks5)",
		EnvVar:      "DATGRAB_PROXY",
		Destination: &proxyURL,
	},
	cli.IntFlag{
		Name:        "max-redirects",
		Usage:       "maximum redirects to follow",
		Value:       DEF_MAX_REDIRECTS,
		Destination: &maxRedirects,
	},
}

func info(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
	}
	if err := grablib.ValidateScheme(url); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	client, err := grablib.NewHTTPClient(proxyURL, maxRedirects, 0)
	if err != nil {
		common.PrintRuntimeErr(ctx, "info", "proxy", err)
		return cli.NewExitError("", 1)
	}

	headers := make(grablib.Headers, 0)
	headers.InitOrUpdate(grablib.USER_AGENT_KEY, getUserAgent(userAgent))

	pctx, cancel := context.WithTimeout(context.Background(), grablib.DEF_PROBE_TIMEOUT)
	defer cancel()
	ri, err := grablib.ProbeInfo(pctx, client, url, headers)
	if err != nil {
		common.PrintRuntimeErr(ctx, "info", "probe", err)
		return cli.NewExitError("", 1)
	}

	// Accept-Ranges is advisory; a 1-byte range request settles it.
	resumable := ri.AcceptRanges
	if !resumable {
		resumable = supportsRange(client, url, headers)
	}

	name := ri.FileName
	if name == "" {
		name = "unknown"
	}
	size := ri.Size.String()
	if !ri.Size.IsUnknown() {
		size = fmt.Sprintf("%s (%d bytes)", size, int64(ri.Size))
	}
	fmt.Printf(`File Info:
  Name      : %s
  Size      : %s
  Resumable : %t
  Final URL : %s
`, name, size, resumable, ri.FinalURL)
	return nil
}

// supportsRange asks for the first byte and checks whether the server
// answers 206. Errors count as no support; this is a diagnostic probe.
func supportsRange(client *http.Client, url string, headers grablib.Headers) bool {
	rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(rctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	headers.Set(req.Header)
	req.Header.Set("Range", "bytes=0-0")
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusPartialContent
}
