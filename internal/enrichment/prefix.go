package enrichment

import (
	"fmt"
	"strings"
)

// negationGlyph marks a negated relation in the rendered prefix.
const negationGlyph = "¬"

// FormatPrefix renders the pre-identified signal block prepended to the
// fact-extraction transcript. Section order is fixed: Entities, then
// Relationships, then Preference Patterns. Sections with no content are
// omitted; with no signals at all the prefix is empty.
func FormatPrefix(signals Signals) string {
	if signals.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Pre-identified signals:\n")

	if len(signals.Entities) > 0 {
		items := make([]string, 0, len(signals.Entities))
		for _, ent := range signals.Entities {
			items = append(items, fmt.Sprintf("[%s:%s]", ent.Text, ent.Label))
		}
		b.WriteString("- Entities: " + strings.Join(items, ", ") + "\n")
	}

	if len(signals.Relationships) > 0 {
		items := make([]string, 0, len(signals.Relationships))
		for _, rel := range signals.Relationships {
			neg := ""
			if rel.Negated {
				neg = negationGlyph
			}
			items = append(items, fmt.Sprintf("[%s%s -%s-> %s]", neg, rel.Subject, rel.Verb, rel.Object))
		}
		b.WriteString("- Relationships: " + strings.Join(items, ", ") + "\n")
	}

	if len(signals.Patterns) > 0 {
		items := make([]string, 0, len(signals.Patterns))
		for _, category := range signals.Patterns {
			items = append(items, strings.ReplaceAll(string(category), "_", " "))
		}
		b.WriteString("- Preference Patterns: " + strings.Join(items, ", ") + "\n")
	}

	return b.String()
}
