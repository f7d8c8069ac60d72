package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	literal string
	param   string
}

// pattern is a compiled route path such as /trends/:city.
type pattern struct {
	raw      string
	segments []segment
	params   []string
}

func compilePattern(raw string) (*pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, raw)
	}
	p := &pattern{raw: raw}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return p, nil
	}
	seen := make(map[string]bool)
	for _, part := range strings.Split(trimmed, "/") {
		switch {
		case part == "":
			return nil, fmt.Errorf("%w: path %q has an empty segment", ErrInvalidRoute, raw)
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if !paramName.MatchString(name) {
				return nil, fmt.Errorf("%w: path %q has a malformed placeholder %q", ErrInvalidRoute, raw, part)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: path %q repeats placeholder %q", ErrInvalidRoute, raw, name)
			}
			seen[name] = true
			p.segments = append(p.segments, segment{param: name})
			p.params = append(p.params, name)
		default:
			p.segments = append(p.segments, segment{literal: part})
		}
	}
	return p, nil
}

// key is the shape of the pattern with placeholder names erased, used to
// reject patterns that would match exactly the same URLs.
func (p *pattern) key() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.param != "" {
			b.WriteByte(':')
			continue
		}
		b.WriteString(strings.ToLower(s.literal))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// match reports whether segs fit the pattern and returns placeholder values.
// Static segments compare case-insensitively; placeholders never match an
// empty segment.
func (p *pattern) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string, len(p.params))
	for i, s := range p.segments {
		if s.param != "" {
			if segs[i] == "" {
				return nil, false
			}
			params[s.param] = segs[i]
			continue
		}
		if !strings.EqualFold(s.literal, segs[i]) {
			return nil, false
		}
	}
	return params, true
}

// build renders the pattern with params substituted and path-escaped.
func (p *pattern) build(params map[string]string) (string, error) {
	if len(p.segments) == 0 {
		return "/", nil
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.param == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := params[s.param]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %q for %s", ErrMissingParam, s.param, p.raw)
		}
		b.WriteString(url.PathEscape(v))
	}
	return b.String(), nil
}

// splitTarget separates a navigation target into decoded path segments, the
// escaped path used for matching and the query.
func splitTarget(target string) (segs []string, path string, query url.Values) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	rawQuery := ""
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target, rawQuery = target[:i], target[i+1:]
	}
	query, _ = url.ParseQuery(rawQuery)

	path = target
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if path == "/" {
		return nil, path, query
	}
	for _, part := range strings.Split(path[1:], "/") {
		if dec, err := url.PathUnescape(part); err == nil {
			part = dec
		}
		segs = append(segs, part)
	}
	return segs, path, query
}
