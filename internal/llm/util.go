package llm

import "strings"

// CleanMarkdownBlock strips a code fence that wraps the whole response.
// Models often answer with ```markdown ... ``` even when asked not to.
func CleanMarkdownBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := strings.TrimPrefix(text, "```")
	nl := strings.Index(body, "\n")
	if nl < 0 {
		return text
	}
	lang := strings.TrimSpace(body[:nl])
	if strings.ContainsAny(lang, " #|") {
		return text
	}
	body = body[nl+1:]

	idx := strings.LastIndex(body, "```")
	if idx < 0 {
		return text
	}
	if strings.TrimSpace(body[idx+3:]) != "" {
		return text
	}
	return strings.TrimSpace(body[:idx])
}
