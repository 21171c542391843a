package providers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errBadPathSegment = errors.New("invalid path segment")

type queryParam struct {
	key   string
	value string
}

// buildURL joins host with the path segments and appends the query parameters
// in the given order. Segments and values are percent-encoded here, callers
// pass them raw. Empty and dot segments are rejected.
func buildURL(host string, segments []string, params ...queryParam) (*url.URL, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse host %q: %w", host, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("host %q must be an absolute url", host)
	}

	if len(segments) > 0 {
		escaped := make([]string, len(segments))
		for i, s := range segments {
			// Dot segments survive PathEscape and JoinPath would resolve them.
			if s == "" || s == "." || s == ".." {
				return nil, fmt.Errorf("%w: %q", errBadPathSegment, s)
			}
			escaped[i] = url.PathEscape(s)
		}
		u = u.JoinPath(escaped...)
	}

	var q strings.Builder
	for i, p := range params {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString(url.QueryEscape(p.key))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(p.value))
	}
	u.RawQuery = q.String()
	return u, nil
}

// mustBuildURL is buildURL for compile-time hosts; a bad host is a bug.
func mustBuildURL(host string, segments []string, params ...queryParam) string {
	u, err := buildURL(host, segments, params...)
	if err != nil {
		panic("static url should be valid: " + err.Error())
	}
	return u.String()
}
