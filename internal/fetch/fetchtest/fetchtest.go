// Package fetchtest provides an HTTP client for tests that sends requests
// for any host to a single httptest server, preserving the original Host.
package fetchtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
)

// hostRouter rewrites each request's scheme and address to target.
type hostRouter struct {
	target *url.URL
	base   http.RoundTripper
}

func (h *hostRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Host = req.URL.Host
	clone.URL.Scheme = h.target.Scheme
	clone.URL.Host = h.target.Host
	return h.base.RoundTrip(clone)
}

// NewClient returns a client whose requests, whatever their URL, are served
// by srv. Handlers can dispatch on r.Host.
func NewClient(srv *httptest.Server) *http.Client {
	target, err := url.Parse(srv.URL)
	if err != nil {
		panic(err)
	}
	return &http.Client{Transport: &hostRouter{target: target, base: srv.Client().Transport}}
}
