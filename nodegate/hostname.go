package nodegate

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// stripQuery returns everything in uri before the first '?' (spec.md §4.C:
// "The path is derived by stripping everything at and after the first
// '?'"). A URI with no '?' is returned verbatim; a URI that is only a query
// ("?...") yields an empty path (spec.md §8 boundary behaviors).
func stripQuery(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i]
	}
	return uri
}

// hostnameOf extracts the routable hostname from a raw Host header value,
// stripping any ":port" suffix (spec.md §4.C). It matches the original
// source's lastIndexOf(':') exactly: a bracketed IPv6 authority like
// "[::1]:8080" splits correctly to "[::1]", but a bare IPv6 literal with no
// port, like "::1", is mis-split to ":" — see DESIGN.md for why this open
// question (spec.md §9) is resolved as "preserve the original behavior"
// rather than guessed differently.
//
// An empty or malformed Host header (rejected by httpguts.ValidHostHeader)
// yields the empty string, which routes to the default virtual host
// (spec.md §8).
func hostnameOf(host string) string {
	if host == "" || !httpguts.ValidHostHeader(host) {
		return ""
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
