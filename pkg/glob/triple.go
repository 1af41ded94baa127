package glob

import "strings"

// Triple is a namespace:name:version glob. It is the short form used on the
// command line and in alias templates.
type Triple struct {
	Namespace string
	Name      string
	Version   string

	matcher *Matcher
}

// ParseTriple splits s on ':' into up to three segments and compiles them.
// Missing trailing segments are empty and match anything.
func ParseTriple(s string) (*Triple, error) {
	parts := strings.SplitN(s, ":", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	m, err := NewMatcher(parts...)
	if err != nil {
		return nil, err
	}
	return &Triple{Namespace: parts[0], Name: parts[1], Version: parts[2], matcher: m}, nil
}

// Match matches the three input values and returns the capture groups.
func (t *Triple) Match(namespace, name, version string) ([]string, bool) {
	return t.matcher.Match(namespace, name, version)
}

// Apply matches the input values and expands template, itself a
// namespace:name:version string, segment by segment. A template segment that
// is empty after expansion inherits the corresponding input value.
func (t *Triple) Apply(namespace, name, version, template string) ([3]string, bool) {
	groups, ok := t.Match(namespace, name, version)
	if !ok {
		return [3]string{}, false
	}

	in := [3]string{namespace, name, version}
	tmpl := strings.SplitN(template, ":", 3)

	var out [3]string
	for i := range out {
		var seg string
		if i < len(tmpl) {
			seg = Expand(groups, tmpl[i])
		}
		if seg == "" {
			seg = in[i]
		}
		out[i] = seg
	}
	return out, true
}
