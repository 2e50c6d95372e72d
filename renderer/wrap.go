package renderer

import (
	"math"
	"strings"
	"unicode"
)

// Ellipsis 在文本超出最大行数时追加到最后一行末尾。
const Ellipsis = "…"

// widenStep 为每次放宽折行宽度的比例。
const widenStep = 1.05

func wrapLines(text string, limit float64, maxLines int, measure func(string) float64) []string {
	if maxLines <= 0 {
		return nil
	}
	if strings.Contains(text, "\n") {
		parts := strings.Split(text, "\n")
		if len(parts) > maxLines {
			parts = parts[:maxLines]
		}
		return parts
	}
	if limit <= 0 || math.IsInf(limit, 0) || math.IsNaN(limit) {
		return []string{text}
	}

	// 文本框宽度取的是平均行宽，按它贪心折行可能多出一行；逐步放宽直到行数合适。
	ceiling := limit * 1.5
	for w := limit; w <= ceiling; w *= widenStep {
		lines := greedyWrap(text, w, measure)
		if len(lines) <= maxLines {
			return lines
		}
	}
	lines := greedyWrap(text, ceiling, measure)
	if len(lines) <= maxLines {
		return lines
	}
	kept := lines[:maxLines]
	kept[maxLines-1] = strings.TrimRightFunc(kept[maxLines-1], unicode.IsSpace) + Ellipsis
	return kept
}

// greedyWrap 优先在空白处分割，单个词超过限制时在词内拆分。
// 每次都测量整行候选文本，字间距等跨词的宽度才会被计入。
func greedyWrap(content string, limit float64, measure func(string) float64) []string {
	tokens := tokenize(content)
	var lines []string
	var builder strings.Builder

	emit := func() {
		if builder.Len() == 0 {
			return
		}
		lines = append(lines, strings.TrimRightFunc(builder.String(), unicode.IsSpace))
		builder.Reset()
	}
	overflows := func(token string) bool {
		return builder.Len() > 0 && measure(builder.String()+token) > limit
	}
	appendToken := func(token string) {
		// 行首不保留空白
		if builder.Len() == 0 && strings.TrimSpace(token) == "" {
			return
		}
		builder.WriteString(token)
	}

	for _, token := range tokens {
		isSpace := strings.TrimSpace(token) == ""
		if !isSpace && overflows(token) {
			emit()
		}
		if isSpace || measure(token) <= limit {
			appendToken(token)
			continue
		}
		for _, chunk := range splitByWidth(token, limit, measure) {
			if overflows(chunk) {
				emit()
			}
			appendToken(chunk)
		}
	}
	emit()
	return lines
}

func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}
	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, measure func(string) float64) []string {
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if measure(builder.String()) > limit && builder.Len() > len(string(r)) {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
