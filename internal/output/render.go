package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/askp-cli/askp/internal/core"
)

// Renderer turns documents and single entries into one output format.
type Renderer interface {
	// Render produces the final combined artifact.
	Render(doc *Document) (string, error)
	// RenderEntry produces an individual result file.
	RenderEntry(e Entry) (string, error)
	// Header opens a live combined file that blocks are appended to.
	Header(total int) string
	// Block is one appended section of a live combined file.
	Block(e Entry) string
}

// NewRenderer returns the renderer for format.
func NewRenderer(format core.Format) Renderer {
	switch format {
	case core.FormatJSON:
		return &JSONRenderer{Indent: true}
	case core.FormatText:
		return &TextRenderer{}
	default:
		return &MarkdownRenderer{}
	}
}

var printer = message.NewPrinter(language.English)

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int) string {
	return printer.Sprintf("%d", n)
}

// TotalsLine is the one-line summary footer shared by every text-like format.
func TotalsLine(s *Summary) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d queries | %s tokens | $%.4f | %.1fs (%.2f q/s)",
		s.Succeeded, s.Requested, FormatTokens(s.Tokens), s.Cost, s.ElapsedSeconds, s.QueriesPerSecond)
}

// Slug builds a markdown anchor: lower-case, runs of non-alphanumerics become
// one hyphen, leading and trailing hyphens are dropped.
func Slug(title string) string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = sb.Len() > 0
			continue
		}
		if pendingHyphen {
			sb.WriteByte('-')
			pendingHyphen = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
