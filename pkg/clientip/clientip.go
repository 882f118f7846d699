// Package clientip resolves the address recorded for a requester.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the first X-Forwarded-For entry, falling back to the transport peer
// address without its port. The result may be empty.
func FromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			first = forwarded[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return peer(r.RemoteAddr)
}

// Peer returns the transport peer address without its port, ignoring forwarding headers.
func Peer(r *http.Request) string {
	if r == nil {
		return ""
	}
	return peer(r.RemoteAddr)
}

func peer(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
