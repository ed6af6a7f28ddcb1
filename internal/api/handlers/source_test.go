package handlers

import (
	"net/http"
	"testing"
)

func TestSourceAddress(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "direct connection", remoteAddr: "192.0.2.10:54321", want: "192.0.2.10"},
		{name: "ipv6 direct connection", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "forwarded single", forwarded: "203.0.113.7", remoteAddr: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "forwarded chain uses first", forwarded: " 203.0.113.7 , 10.0.0.2", remoteAddr: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "empty forwarded entry falls back", forwarded: " , 10.0.0.2", remoteAddr: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "unparseable remote addr", remoteAddr: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := SourceAddress(req); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "abc": false, "": false, "99999999999999999999": false} {
		if _, ok := parseID(raw); ok != want {
			t.Errorf("parseID(%q): expected ok=%v", raw, want)
		}
	}
}
