// Package glob compiles packaging-rule glob patterns into anchored regular
// expressions and expands @N backreferences from the captured groups.
//
// Supported syntax within one segment:
//
//   - any sequence of characters
//     ?        any single character
//     {a,b,c}  alternation; each group is a capture group
//     \x       the literal character x
//
// Every other character matches itself. An empty pattern matches anything and
// contributes no capture groups.
package glob

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/mvnpack/pkg/errors"
)

// Compile converts a glob into an anchored regular expression. It returns a
// nil pattern for an empty glob.
func Compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteByte('^')

	depth := 0
	escaped := false
	for _, r := range pattern {
		if escaped {
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteByte('.')
		case '{':
			depth++
			sb.WriteByte('(')
		case '}':
			if depth == 0 {
				return nil, errors.New(errors.ErrCodeInvalidPattern, "unbalanced '}' in glob %q", pattern)
			}
			depth--
			sb.WriteByte(')')
		case ',':
			if depth > 0 {
				sb.WriteByte('|')
			} else {
				sb.WriteByte(',')
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	if escaped {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "glob %q ends with an escape character", pattern)
	}
	if depth != 0 {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "unclosed '{' in glob %q", pattern)
	}

	sb.WriteByte('$')
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "compile glob %q", pattern)
	}
	return re, nil
}

// Matcher is an ordered list of compiled segment patterns. A nil segment
// matches any value.
type Matcher struct {
	segments []*regexp.Regexp
}

// NewMatcher compiles each segment glob in order.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{segments: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		re, err := Compile(p)
		if err != nil {
			return nil, err
		}
		m.segments[i] = re
	}
	return m, nil
}

// Match runs every segment pattern against the value at the same position
// and returns the capture groups of all segments in order. It reports false
// if any segment fails to match. Missing values are treated as empty.
func (m *Matcher) Match(values ...string) ([]string, bool) {
	var groups []string
	for i, re := range m.segments {
		if re == nil {
			continue
		}
		var v string
		if i < len(values) {
			v = values[i]
		}
		sub := re.FindStringSubmatch(v)
		if sub == nil {
			return nil, false
		}
		groups = append(groups, sub[1:]...)
	}
	return groups, true
}

var backref = regexp.MustCompile(`@(\d+)`)

// Expand replaces @N placeholders in s with groups[N-1] and trims the result.
// Each placeholder takes the longest digit prefix that names an existing
// group, so with ten groups @12 is group 1 followed by "2". Substituted text
// is never expanded again.
func Expand(groups []string, s string) string {
	if !strings.Contains(s, "@") {
		return strings.TrimSpace(s)
	}
	s = backref.ReplaceAllStringFunc(s, func(ref string) string {
		digits := ref[1:]
		for end := len(digits); end > 0; end-- {
			n, err := strconv.Atoi(digits[:end])
			if err == nil && n >= 1 && n <= len(groups) {
				return groups[n-1] + digits[end:]
			}
		}
		return ref
	})
	return strings.TrimSpace(s)
}
