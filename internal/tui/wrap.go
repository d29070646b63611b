package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// hangingLines wraps text to width cells, putting prefix on the first line and
// indenting the rest under it.
func hangingLines(prefix, text string, width int) []string {
	prefixWidth := runewidth.StringWidth(prefix)
	indent := strings.Repeat(" ", prefixWidth)
	words := wrapWords(text, width-prefixWidth)
	if len(words) == 0 {
		return nil
	}
	out := make([]string, len(words))
	for i, line := range words {
		if i == 0 {
			out[i] = prefix + line
		} else {
			out[i] = indent + line
		}
	}
	return out
}

// wrapWords breaks text on spaces; a single word wider than width is split by cells.
func wrapWords(text string, width int) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(fields, " ")}
	}
	var lines []string
	line := ""
	lineWidth := 0
	for _, word := range fields {
		wordWidth := runewidth.StringWidth(word)
		for wordWidth > width {
			if line != "" {
				lines = append(lines, line)
				line, lineWidth = "", 0
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				// A single rune wider than width.
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
			wordWidth = runewidth.StringWidth(word)
		}
		if word == "" {
			continue
		}
		switch {
		case line == "":
			line, lineWidth = word, wordWidth
		case lineWidth+1+wordWidth > width:
			lines = append(lines, line)
			line, lineWidth = word, wordWidth
		default:
			line += " " + word
			lineWidth += 1 + wordWidth
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
