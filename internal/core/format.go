package core

import (
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatText), "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Extension returns the file extension (without dot) for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "txt"
	default:
		return "md"
	}
}
