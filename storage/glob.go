package storage

import (
	"context"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbukum/minispark/errors"
)

// HasGlob reports whether uri holds glob metacharacters.
func HasGlob(uri string) bool {
	return strings.ContainsAny(uri, "*?[{")
}

// Glob expands a pattern URI such as "data/*.txt" or
// "s3://bucket/logs/**/*.log" into the matching object URIs, sorted. A URI
// without metacharacters is returned unchanged, without touching the
// backend. No match yields NOT_FOUND.
func (c *Component) Glob(ctx context.Context, pattern string) ([]string, error) {
	if !HasGlob(pattern) {
		return []string{pattern}, nil
	}
	scheme, p := SplitURI(pattern)
	if scheme == SchemeFile {
		p = path.Clean(p)
	}
	if !doublestar.ValidatePattern(p) {
		return nil, errors.InvalidInput("pattern", pattern+" is not a valid glob")
	}
	s, err := c.Backend(scheme)
	if err != nil {
		return nil, err
	}

	base, _ := doublestar.SplitPattern(p)
	if base == "." {
		base = ""
	}
	infos, err := s.List(ctx, base)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, info := range infos {
		ok, err := doublestar.Match(p, info.Path)
		if err != nil {
			return nil, errors.InvalidInput("pattern", err.Error())
		}
		if !ok {
			continue
		}
		if HasScheme(pattern) {
			out = append(out, scheme+"://"+info.Path)
		} else {
			out = append(out, info.Path)
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound("input", pattern)
	}
	return out, nil
}
