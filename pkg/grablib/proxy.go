package grablib

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

var (
	ErrInvalidProxyURL      = errors.New("invalid proxy URL")
	ErrUnsupportedProxyType = errors.New("unsupported proxy scheme")
)

var supportedProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ParseProxyURL validates a proxy URL string and returns its parsed
// form. Supported schemes are http, https and socks5.
func ParseProxyURL(proxyURL string) (*url.URL, error) {
	if proxyURL == "" {
		return nil, ErrInvalidProxyURL
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}
	if !supportedProxySchemes[parsed.Scheme] {
		return nil, ErrUnsupportedProxyType
	}
	return parsed, nil
}

// NewHTTPClient builds the client the engine runs on: redirect policy
// with maxRedirects hops, an optional overall timeout, and an optional
// proxy. An empty proxyURL falls back to the environment proxy
// settings (HTTP_PROXY and friends, NO_PROXY honored).
func NewHTTPClient(proxyURL string, maxRedirects int, timeout time.Duration) (*http.Client, error) {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	client := &http.Client{
		CheckRedirect: RedirectPolicy(maxRedirects),
		Timeout:       timeout,
	}
	if proxyURL == "" {
		client.Transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
		return client, nil
	}

	parsed, err := ParseProxyURL(proxyURL)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if parsed.Scheme == "socks5" {
		var auth *proxy.Auth
		if parsed.User != nil {
			pass, _ := parsed.User.Password()
			auth = &proxy.Auth{User: parsed.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}
		transport.Dial = dialer.Dial
	} else {
		transport.Proxy = http.ProxyURL(parsed)
	}
	client.Transport = transport
	return client, nil
}
