package query

import (
	"strings"

	"github.com/askp-cli/askp/internal/core"
)

const queryPlaceholder = "{query}"

const denseTemplate = `Provide a highly factual, information-dense response to the following:
{query}

Format your response to maximize information density with these guidelines:
- Focus exclusively on concrete facts and information
- Eliminate all filler words, phrases and redundancies
- Use up to 50 words per line for maximum density
- Prioritize key details over explanatory text
- Remove pleasantries, introductions and conclusions`

const humanTemplate = `Answer the following question in a clear, well-structured format:
{query}

Provide thorough explanations with examples where helpful.
Use formatting to enhance readability.`

// RenderPrompt wraps query in the template for style. Raw sends the query verbatim.
func RenderPrompt(style core.PromptStyle, query string) string {
	switch style {
	case core.PromptDense:
		return strings.Replace(denseTemplate, queryPlaceholder, query, 1)
	case core.PromptHuman:
		return strings.Replace(humanTemplate, queryPlaceholder, query, 1)
	default:
		return query
	}
}
