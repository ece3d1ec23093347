package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/timemachine/internal/horizon"
)

// DateContract describes how a note must record its creation date to be
// picked up by the time machine.
func DateContract(property string) string {
	var b strings.Builder
	b.WriteString("# Time Machine Date Contract\n\n")
	fmt.Fprintf(&b, "A note takes part in the time machine when its YAML frontmatter carries a `%s` field:\n\n", property)
	b.WriteString("```markdown\n---\n")
	fmt.Fprintf(&b, "%s: 2021-06-01T09:30:00\n", property)
	b.WriteString("---\n\n# Title\n```\n\n")
	b.WriteString("## Accepted values\n\n")
	b.WriteString("- `2006-01-02` (date only, local midnight)\n")
	b.WriteString("- `2006-01-02T15:04`, `2006-01-02T15:04:05` (local time)\n")
	b.WriteString("- `2006-01-02 15:04`, `2006-01-02 15:04:05` (local time)\n")
	b.WriteString("- RFC 3339 with offset, e.g. `2006-01-02T15:04:05+02:00`\n\n")
	b.WriteString("Notes without the field, or with a value that is not a date, are skipped.\n\n")
	b.WriteString("## Horizons\n\n")
	for _, s := range horizon.Catalog {
		fmt.Fprintf(&b, "- `%s`: %s (%s)\n", s.Key, s.Label, s.Offset)
	}
	b.WriteString("\nA note is listed under a horizon when its date is at or before that horizon's boundary; ")
	b.WriteString("each horizon keeps only the most recent notes.\n")
	return b.String()
}
