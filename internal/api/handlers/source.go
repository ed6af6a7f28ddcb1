package handlers

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// SourceAddress returns the client address recorded for audit purposes: the
// first X-Forwarded-For entry when present, otherwise the host part of the
// direct connection address.
func SourceAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseID parses a positive int64 path parameter.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
