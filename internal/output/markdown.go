package output

import (
	"fmt"
	"strings"
)

// MarkdownRenderer renders results as markdown.
type MarkdownRenderer struct{}

// Render renders a combined document.
func (r *MarkdownRenderer) Render(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	if doc.Type == DocumentDeepResearch {
		return r.renderDeep(doc), nil
	}

	var sb strings.Builder
	sb.WriteString("# Combined Query Results\n\n")
	for _, e := range doc.Results {
		sb.WriteString(r.Block(e))
	}
	writeMarkdownSummary(&sb, doc.Summary)
	return sb.String(), nil
}

func (r *MarkdownRenderer) renderDeep(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("# Deep Research Results\n\n")

	if strings.TrimSpace(doc.Overview) != "" {
		sb.WriteString("## Overview\n\n")
		sb.WriteString(strings.TrimSpace(doc.Overview))
		sb.WriteString("\n\n")
	}

	if len(doc.Sections) > 2 {
		sb.WriteString("## Table of Contents\n\n")
		for i, s := range doc.Sections {
			sb.WriteString(fmt.Sprintf("%d. [%s](#%s)\n", i+1, s.Title, s.Anchor))
		}
		sb.WriteString("\n")
	}

	for i, e := range doc.Results {
		sb.WriteString(fmt.Sprintf("## %s\n\n", doc.sectionTitle(i)))
		sb.WriteString(markdownBody(e))
		sb.WriteString("\n---\n\n")
	}

	if strings.TrimSpace(doc.Conclusion) != "" {
		sb.WriteString("## Conclusion\n\n")
		sb.WriteString(strings.TrimSpace(doc.Conclusion))
		sb.WriteString("\n\n")
	}

	writeMarkdownSummary(&sb, doc.Summary)
	return sb.String()
}

// RenderEntry renders a single result file.
func (r *MarkdownRenderer) RenderEntry(e Entry) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", e.Query))
	sb.WriteString(markdownBody(e))
	sb.WriteString(fmt.Sprintf("\n---\n\nModel: %s | Tokens: %s | Cost: $%.4f | %.1fs\n",
		e.Model, FormatTokens(e.Tokens), e.Cost, e.ElapsedSeconds))
	return sb.String(), nil
}

// Header opens a live combined markdown file. total is the requested count;
// the final artifact states how many results it holds.
func (r *MarkdownRenderer) Header(total int) string {
	return fmt.Sprintf("# Combined Results (%d queries requested)\n\n", total)
}

// Block renders one query section.
func (r *MarkdownRenderer) Block(e Entry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Query %d: %s\n\n", e.QueryIndex, e.Query))
	sb.WriteString(markdownBody(e))
	sb.WriteString("\n---\n\n")
	return sb.String()
}

func markdownBody(e Entry) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(e.Content))
	sb.WriteString("\n")
	if len(e.Citations) > 0 {
		sb.WriteString("\n**Sources**\n\n")
		for i, c := range e.Citations {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c))
		}
	}
	return sb.String()
}

func writeMarkdownSummary(sb *strings.Builder, s *Summary) {
	if s == nil {
		return
	}
	sb.WriteString("## Summary\n\n")
	sb.WriteString("**Totals**: ")
	sb.WriteString(TotalsLine(s))
	sb.WriteString("\n")
}
