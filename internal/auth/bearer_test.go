package auth

import "testing"

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "valid", header: "Bearer abc.def.ghi", expected: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", expected: "abc"},
		{name: "surrounding whitespace", header: "Bearer   abc  ", expected: "abc"},
		{name: "empty", header: "", expected: ""},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", expected: ""},
		{name: "scheme only", header: "Bearer", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBearerToken(tt.header); got != tt.expected {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.expected)
			}
		})
	}
}
