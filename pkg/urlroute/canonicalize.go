package urlroute

import (
	"errors"
	"net/url"
	"strings"
)

// Location is a canonicalized URL path with its query.
type Location struct {
	// Path is the canonical path, always starting with "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string
}

// String renders the location as path plus optional query.
func (l Location) String() string {
	if l.Query == "" {
		return l.Path
	}
	return l.Path + "?" + l.Query
}

// Canonicalization errors.
var (
	ErrInvalidURL           = errors.New("urlroute: invalid url")
	ErrBackslashInPath      = errors.New("urlroute: path contains backslash")
	ErrNullByteInPath       = errors.New("urlroute: path contains null byte")
	ErrInvalidPercentEscape = errors.New("urlroute: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("urlroute: path escapes root via ..")
)

// Canonicalize normalizes a path with an optional query and fragment.
//
// Trailing slashes are removed (except for root), repeated slashes are
// collapsed, "." segments are dropped and ".." segments resolved. The
// fragment is discarded and the query kept verbatim.
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above root are
// rejected.
func Canonicalize(input string) (Location, error) {
	input, _, _ = strings.Cut(input, "#")
	path, query, _ := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return Location{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Location{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Location{}, err
		}
	}

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Location{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	return Location{Path: "/" + strings.Join(segments, "/"), Query: query}, nil
}

// ParseLocation accepts either a path or an absolute http(s) URL, as
// reported by a browser's location, and canonicalizes its path. The host
// of an absolute URL is ignored.
func ParseLocation(raw string) (Location, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return Canonicalize(raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, ErrInvalidURL
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return Canonicalize(path)
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
