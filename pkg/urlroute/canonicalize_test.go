package urlroute

import (
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPath  string
		wantQuery string
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/"},
		{name: "no leading slash", input: "active", wantPath: "/active"},
		{name: "trailing slash", input: "/active/", wantPath: "/active"},
		{name: "collapse slashes", input: "//todos//active", wantPath: "/todos/active"},
		{name: "single dot", input: "/./completed", wantPath: "/completed"},
		{name: "double dot", input: "/active/../completed", wantPath: "/completed"},
		{name: "double dot to root", input: "/active/..", wantPath: "/"},
		{name: "query preserved", input: "/active?page=2", wantPath: "/active", wantQuery: "page=2"},
		{name: "fragment dropped", input: "/completed#footer", wantPath: "/completed"},
		{name: "query and fragment", input: "/?q=1#top", wantPath: "/", wantQuery: "q=1"},
		{name: "query escapes not validated", input: "/?bad=%GG", wantPath: "/", wantQuery: "bad=%GG"},
		{name: "valid percent escape", input: "/a%20b", wantPath: "/a%20b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.input)
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error = %v", tc.input, err)
			}
			if got.Path != tc.wantPath {
				t.Errorf("Canonicalize(%q).Path = %q, want %q", tc.input, got.Path, tc.wantPath)
			}
			if got.Query != tc.wantQuery {
				t.Errorf("Canonicalize(%q).Query = %q, want %q", tc.input, got.Query, tc.wantQuery)
			}
		})
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "null byte literal", input: "/a/\x00", wantErr: ErrNullByteInPath},
		{name: "null byte encoded", input: "/a/%00", wantErr: ErrNullByteInPath},
		{name: "incomplete escape", input: "/a/%2", wantErr: ErrInvalidPercentEscape},
		{name: "bad escape", input: "/a/%GG", wantErr: ErrInvalidPercentEscape},
		{name: "trailing percent", input: "/100%", wantErr: ErrInvalidPercentEscape},
		{name: "escape root", input: "/../secret", wantErr: ErrPathEscapesRoot},
		{name: "deep escape root", input: "/a/../../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Canonicalize(tc.input)
			if err != tc.wantErr {
				t.Errorf("Canonicalize(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "/active", want: "/active"},
		{input: "http://localhost:8000/active/", want: "/active"},
		{input: "https://example.com/completed?x=1#f", want: "/completed?x=1"},
		{input: "https://example.com", want: "/"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLocation(tc.input)
			if err != nil {
				t.Fatalf("ParseLocation(%q) unexpected error = %v", tc.input, err)
			}
			if got.String() != tc.want {
				t.Errorf("ParseLocation(%q) = %q, want %q", tc.input, got.String(), tc.want)
			}
		})
	}

	if _, err := ParseLocation("http://[::1"); err != ErrInvalidURL {
		t.Errorf("ParseLocation(bad host) error = %v, want %v", err, ErrInvalidURL)
	}
}
