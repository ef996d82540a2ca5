package solver

import (
	"fmt"
	"strings"

	"quiz-solver/pkg/models"
)

const systemPrompt = "You are a data analysis expert. Provide precise, accurate answers."

const (
	maxPromptLinks = 25
	// maxPromptText caps the readable page summary, in runes.
	maxPromptText = 6000
)

func buildPrompt(content, sourceURL string, digest models.PageDigest) string {
	var sb strings.Builder

	sb.WriteString("You are an expert data analyst. You have received a quiz task.\n\n")
	fmt.Fprintf(&sb, "Quiz URL: %s\n\n", sourceURL)
	if digest.Title != "" {
		fmt.Fprintf(&sb, "Page title: %s\n\n", digest.Title)
	}
	if digest.TextContent != "" {
		sb.WriteString("Page text:\n")
		sb.WriteString(truncateRunes(digest.TextContent, maxPromptText))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Quiz Content (HTML):\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	if len(digest.OutboundLinks) > 0 {
		sb.WriteString("Links found on the page:\n")
		for i, link := range digest.OutboundLinks {
			if i == maxPromptLinks {
				fmt.Fprintf(&sb, "- ... %d more\n", len(digest.OutboundLinks)-maxPromptLinks)
				break
			}
			fmt.Fprintf(&sb, "- %s\n", link)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Your task:
1. Extract the question from the HTML content (it may be base64 encoded)
2. If there is a file to download, note its URL
3. Understand what analysis is required
4. Provide the answer in the exact format requested

The answer could be:
- A number
- A string
- A boolean
- A base64 URI
- A JSON object

Important:
- Return ONLY the final answer value, nothing else
- Do not explain your reasoning and do not wrap the answer in markdown

Analyze the content and provide the answer:`)

	return sb.String()
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + " ..."
}
