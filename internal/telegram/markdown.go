package telegram

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var boldRe = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)

// SplitMessage splits text into chunks of at most maxLen runes. A chunk ends
// at the last paragraph break in its second half, else at the last newline,
// else at maxLen.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}

		chunk := string(runes[:maxLen])
		splitAt := maxLen
		if i := strings.LastIndex(chunk, "\n\n"); i >= 0 && utf8.RuneCountInString(chunk[:i]) > maxLen/2 {
			splitAt = utf8.RuneCountInString(chunk[:i]) + 2
		} else if i := strings.LastIndex(chunk, "\n"); i >= 0 && utf8.RuneCountInString(chunk[:i]) > maxLen/2 {
			splitAt = utf8.RuneCountInString(chunk[:i]) + 1
		}

		parts = append(parts, strings.TrimRight(string(runes[:splitAt]), "\n"))
		runes = runes[splitAt:]
	}
	return parts
}

// ToLegacyMarkdown rewrites the model's "**bold**" into Telegram's legacy
// Markdown "*bold*" and closes dangling code spans.
func ToLegacyMarkdown(text string) string {
	return FixMarkdown(boldRe.ReplaceAllString(text, "*$1*"))
}

// FixMarkdown closes unbalanced code blocks and inline code spans.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}
	return fixInlineCode(text)
}

func fixInlineCode(text string) string {
	var b strings.Builder
	inBlock := false
	inlineOpen := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && string(runes[i:i+3]) == "```" {
			if inlineOpen {
				b.WriteRune('`')
				inlineOpen = false
			}
			inBlock = !inBlock
			b.WriteString("```")
			i += 2
			continue
		}
		if !inBlock && runes[i] == '`' {
			inlineOpen = !inlineOpen
		}
		b.WriteRune(runes[i])
	}
	if inlineOpen {
		b.WriteRune('`')
	}
	return b.String()
}
