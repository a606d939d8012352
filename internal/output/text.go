package output

import (
	"fmt"
	"strings"
)

// TextRenderer renders results as plain text.
type TextRenderer struct{}

// Render renders a combined document.
func (r *TextRenderer) Render(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}

	var sb strings.Builder
	if doc.Type == DocumentDeepResearch {
		writeTextTitle(&sb, "DEEP RESEARCH RESULTS")
		if strings.TrimSpace(doc.Overview) != "" {
			writeTextTitle(&sb, "OVERVIEW")
			sb.WriteString(strings.TrimSpace(doc.Overview))
			sb.WriteString("\n\n")
		}
		for i, e := range doc.Results {
			writeTextTitle(&sb, doc.sectionTitle(i))
			sb.WriteString(textBody(e))
			sb.WriteString("\n---\n\n")
		}
		if strings.TrimSpace(doc.Conclusion) != "" {
			writeTextTitle(&sb, "CONCLUSION")
			sb.WriteString(strings.TrimSpace(doc.Conclusion))
			sb.WriteString("\n\n")
		}
	} else {
		writeTextTitle(&sb, "COMBINED QUERY RESULTS")
		for _, e := range doc.Results {
			sb.WriteString(r.Block(e))
		}
	}

	if doc.Summary != nil {
		sb.WriteString("Totals: ")
		sb.WriteString(TotalsLine(doc.Summary))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// RenderEntry renders a single result file.
func (r *TextRenderer) RenderEntry(e Entry) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", e.Query))
	sb.WriteString(textBody(e))
	sb.WriteString(fmt.Sprintf("\nModel: %s | Tokens: %s | Cost: $%.4f | %.1fs\n",
		e.Model, FormatTokens(e.Tokens), e.Cost, e.ElapsedSeconds))
	return sb.String(), nil
}

// Header opens a live combined text file.
func (r *TextRenderer) Header(total int) string {
	return fmt.Sprintf("Combined Results (%d queries requested)\n\n", total)
}

// Block renders one query section.
func (r *TextRenderer) Block(e Entry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query %d: %s\n\n", e.QueryIndex, e.Query))
	sb.WriteString(textBody(e))
	sb.WriteString("\n---\n\n")
	return sb.String()
}

func textBody(e Entry) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(e.Content))
	sb.WriteString("\n")
	if len(e.Citations) > 0 {
		sb.WriteString("\nSources:\n")
		for i, c := range e.Citations {
			sb.WriteString(fmt.Sprintf("  [%d] %s\n", i+1, c))
		}
	}
	return sb.String()
}

func writeTextTitle(sb *strings.Builder, title string) {
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", len([]rune(title))))
	sb.WriteString("\n\n")
}
