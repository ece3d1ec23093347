// Package parser extracts frontmatter, titles, and creation dates from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDateProperty is the frontmatter field read when none is configured.
const DefaultDateProperty = "created-iso"

// dateLayouts are tried in order for string values. Layouts without a zone
// are interpreted in the local time zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Title       string

	// scalars keeps the source text of top-level scalar values so dates are
	// read the same way whether or not they were quoted.
	scalars map[string]string
}

// Parse extracts frontmatter, body, and title from raw Markdown bytes.
// Missing, unclosed or malformed frontmatter leaves the whole input as body.
func Parse(data []byte) *Result {
	fm, scalars, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		scalars:     scalars,
	}
}

// Date returns the value of the frontmatter property as a time. It reports
// false when the property is missing or cannot be read as a date.
func (r *Result) Date(property string) (time.Time, bool) {
	raw, ok := r.scalars[property]
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate parses a frontmatter date string.
func ParseDate(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return time.Time{}, fmt.Errorf("parser: empty date")
	}
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parser: unrecognised date %q", s)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, map[string]string, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		// Broken YAML is treated as a note without frontmatter.
		return nil, nil, string(data)
	}
	if len(doc.Content) == 0 {
		return nil, nil, body
	}
	var fm map[string]interface{}
	if err := doc.Decode(&fm); err != nil {
		return nil, nil, string(data)
	}
	return fm, scalarValues(doc.Content[0]), body
}

// scalarValues maps each top-level key of a mapping node to the literal
// text of its value. Non-scalar values are left out.
func scalarValues(m *yaml.Node) map[string]string {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	out := make(map[string]string, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if v.Kind == yaml.ScalarNode {
			out[k.Value] = v.Value
		}
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
