package cmd

import (
	"strings"

	"github.com/datgrab/datgrab/pkg/grablib"
)

// UserAgents maps friendly aliases accepted by --user-agent onto full
// User-Agent strings. Anything not in the map is sent verbatim.
var UserAgents = map[string]string{
	"datgrab": grablib.DEF_USER_AGENT,
	"chrome":  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"firefox": "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
}

func getUserAgent(s string) string {
	if s == "" {
		return grablib.DEF_USER_AGENT
	}
	if ua, ok := UserAgents[strings.ToLower(s)]; ok {
		return ua
	}
	return s
}
