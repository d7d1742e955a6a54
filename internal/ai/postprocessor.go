package ai

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type PostProcessor struct {
	maxLength        int
	minContentLength int
	controlChars     *regexp.Regexp
	codeFence        *regexp.Regexp
}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		maxLength:        4000,
		minContentLength: 10,
		controlChars:     regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`),
		codeFence:        regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$"),
	}
}

// ProcessSummary validates and cleans model output before it is returned to clients
func (p *PostProcessor) ProcessSummary(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = p.codeFence.ReplaceAllString(text, "")
	text = p.controlChars.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			// keep at most one blank line between paragraphs
			if !blank && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			blank = true
			continue
		}
		blank = false
		cleaned = append(cleaned, line)
	}
	text = strings.TrimSpace(strings.Join(cleaned, "\n"))

	if utf8.RuneCountInString(text) < p.minContentLength {
		return "", fmt.Errorf("summary too short, minimum %d characters required", p.minContentLength)
	}

	if utf8.RuneCountInString(text) > p.maxLength {
		runes := []rune(text)
		text = string(runes[:p.maxLength-3]) + "..."
	}
	return text, nil
}
