package templates

import (
	"strings"
)

// Telegram legacy Markdown only reserves these four characters.
// Anything else escaped with a backslash is shown verbatim by the client.
var markdownReplacer = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes report text for a Markdown (legacy) Telegram message
func EscapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// SafeText drops invalid UTF-8 and escapes Markdown.
// Report text comes from a language model, so it is never trusted as markup.
func SafeText(text string) string {
	return EscapeMarkdown(strings.ToValidUTF8(text, ""))
}

// SplitMessage breaks text into chunks of at most limit runes, preferring
// paragraph then line boundaries. Telegram rejects messages over 4096 chars.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := lastBreak(runes[:limit])
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n "))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n "))
	}
	if len(runes) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastBreak(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return len([]rune(s[:i])) + len([]rune(sep))
		}
	}
	return len(window)
}
