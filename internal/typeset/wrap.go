package typeset

import (
	"strings"
	"unicode"
)

// wrapText 贪心换行：优先在空白处断行，单词超过行宽时按字符切分。
// 显式换行符总会开始新的一行。
func wrapText(content string, limit float64, measure func(string) float64) []string {
	if limit <= 0 {
		return strings.Split(content, "\n")
	}
	var (
		lines   []string
		builder strings.Builder
		current float64
	)
	emit := func() {
		lines = append(lines, strings.TrimRightFunc(builder.String(), unicode.IsSpace))
		builder.Reset()
		current = 0
	}
	for pi, paragraph := range strings.Split(strings.ReplaceAll(content, "\r", ""), "\n") {
		if pi > 0 {
			emit()
		}
		for _, token := range tokenize(paragraph) {
			w := measure(token)
			isSpace := strings.TrimSpace(token) == ""
			if isSpace {
				if current == 0 {
					continue
				}
				builder.WriteString(token)
				current += w
				continue
			}
			if current > 0 && current+w > limit {
				emit()
			}
			if w <= limit {
				builder.WriteString(token)
				current += w
				continue
			}
			for _, chunk := range splitByWidth(token, limit, measure) {
				cw := measure(chunk)
				if current > 0 && current+cw > limit {
					emit()
				}
				builder.WriteString(chunk)
				current += cw
			}
		}
	}
	emit()
	return lines
}

func tokenize(s string) []string {
	var (
		tokens  []string
		builder strings.Builder
		inSpace bool
	)
	for _, r := range s {
		space := unicode.IsSpace(r)
		if builder.Len() > 0 && space != inSpace {
			tokens = append(tokens, builder.String())
			builder.Reset()
		}
		inSpace = space
		builder.WriteRune(r)
	}
	if builder.Len() > 0 {
		tokens = append(tokens, builder.String())
	}
	return tokens
}

func splitByWidth(token string, limit float64, measure func(string) float64) []string {
	var (
		parts   []string
		builder strings.Builder
	)
	for _, r := range token {
		builder.WriteRune(r)
		if measure(builder.String()) > limit && builder.Len() > len(string(r)) {
			s := builder.String()
			parts = append(parts, s[:len(s)-len(string(r))])
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
