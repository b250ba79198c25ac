package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	linksHeadingRe = regexp.MustCompile(`[ \t]*\n*(?:\*\*)?Links:(?:\*\*)?[ \t]*\n*`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]\s+`)
	keywordRe      = regexp.MustCompile(`\b[A-Za-z]{3,}\b`)
)

var summaryStopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true, "that": true, "this": true,
}

const (
	summaryPrefix    = "Summary:\n\n"
	summaryMinLength = 100
	summarySentences = 5
	summaryKeywords  = 10
)

// FormatResponse puts sentences, list markers and a Links heading on their
// own lines. Applying it to its own output changes nothing.
func FormatResponse(text string) string {
	text = breakSentences(text)
	text = breakBeforeMarkers(text)
	text = linksHeadingRe.ReplaceAllString(text, "\n\n**Links:**\n")
	return strings.TrimSpace(text)
}

// breakSentences adds a blank line after a period followed by spaces and more
// text on the same line. Numbered list markers like "2." are left alone.
func breakSentences(s string) string {
	out := make([]byte, 0, len(s)+16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' {
			out = append(out, c)
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j == i+1 || j >= len(s) || s[j] == '\n' || s[j] == '\r' || isListMarkerDot(s, i) {
			out = append(out, c)
			continue
		}
		out = append(out, ".\n\n"...)
		i = j - 1
	}
	return string(out)
}

// isListMarkerDot reports whether the period at i ends a one or two digit
// number that starts a word.
func isListMarkerDot(s string, i int) bool {
	k := i
	for k > 0 && isDigit(s[k-1]) {
		k--
	}
	n := i - k
	return n >= 1 && n <= 2 && (k == 0 || isBlank(s[k-1]) || s[k-1] == '\n')
}

// breakBeforeMarkers starts a new line before "•", "- " and numbered markers.
func breakBeforeMarkers(s string) string {
	out := make([]byte, 0, len(s)+16)
	for i := 0; i < len(s); i++ {
		if markerAt(s, i) {
			for len(out) > 0 && isBlank(out[len(out)-1]) {
				out = out[:len(out)-1]
			}
			if len(out) > 0 && out[len(out)-1] != '\n' {
				out = append(out, '\n')
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func markerAt(s string, i int) bool {
	rest := s[i:]
	switch {
	case strings.HasPrefix(rest, "•"), strings.HasPrefix(rest, "- "):
		return true
	case isDigit(s[i]) && (i == 0 || !isDigit(s[i-1])):
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		return j-i <= 2 && j+1 < len(s) && s[j] == '.' && isBlank(s[j+1])
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// Summarize returns an extractive summary of at most maxLength bytes.
// Text shorter than 100 characters is returned unchanged.
func Summarize(text string, maxLength int) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			summary = fmt.Sprintf("Error generating summary: %v", r)
		}
	}()

	if utf8.RuneCountInString(text) < summaryMinLength {
		return text
	}

	sentences := splitSentences(text)
	keywords := topKeywords(text, summaryKeywords)

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sentence := range sentences {
		score := 0.0
		if i == 0 || i == len(sentences)-1 {
			score += 3
		}
		words := keywordRe.FindAllString(strings.ToLower(sentence), -1)
		for _, w := range words {
			if keywords[w] {
				score++
			}
		}
		scores[i] = scored{pos: i, score: score / float64(len(words)+1)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })
	if len(scores) > summarySentences {
		scores = scores[:summarySentences]
	}
	sort.Slice(scores, func(a, b int) bool { return scores[a].pos < scores[b].pos })

	picked := make([]string, len(scores))
	for i, s := range scores {
		picked[i] = sentences[s.pos]
	}
	body := strings.Join(picked, " ")

	budget := maxLength - len(summaryPrefix)
	if len(body) > budget {
		body = truncateAtSentence(body, budget)
	}
	return summaryPrefix + body
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func topKeywords(text string, n int) map[string]bool {
	freq := map[string]int{}
	var order []string
	for _, w := range keywordRe.FindAllString(strings.ToLower(text), -1) {
		if summaryStopwords[w] {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}
	sort.SliceStable(order, func(a, b int) bool { return freq[order[a]] > freq[order[b]] })
	if len(order) > n {
		order = order[:n]
	}
	top := make(map[string]bool, len(order))
	for _, w := range order {
		top[w] = true
	}
	return top
}

// truncateAtSentence cuts s to fit budget bytes, ending at the last period.
func truncateAtSentence(s string, budget int) string {
	if budget <= 1 {
		return ""
	}
	cut := budget - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	s = s[:cut]
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s + "."
}
