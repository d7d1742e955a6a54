package ai

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bilgisen/newshub/internal/models"
)

// DefaultChatURL is the chat service the handoff link opens.
const DefaultChatURL = "https://chatgpt.com/"

// PromptTemplates contains the prompt templates handed to the AI chat service
var PromptTemplates = struct {
	Handoff string
}{
	Handoff: `You are a financial news analyst.
Read the news article at the link below and answer in %s:

1. Translation: translate the headline.
2. Summary: summarize the article in three lines.
3. Market relevance: name the sectors and listed companies affected, and say whether the news is positive or negative for them and why.

Category: %s
Title: %s
Source: %s
Published: %s
Link: %s`,
}

// BuildHandoffPrompt creates the prompt for one news item. link should be the
// resolved article URL when one is available.
func BuildHandoffPrompt(item models.NewsItem, link, language string) string {
	if strings.TrimSpace(language) == "" {
		language = "Korean"
	}
	if link == "" {
		link = item.Link
	}
	return fmt.Sprintf(PromptTemplates.Handoff,
		escapeForPrompt(language),
		escapeForPrompt(item.Category),
		escapeForPrompt(item.Title),
		escapeForPrompt(item.Source),
		escapeForPrompt(item.DisplayTime),
		strings.TrimSpace(link),
	)
}

// ChatLink returns base with the prompt attached as the q query parameter.
func ChatLink(base, prompt string) (string, error) {
	if base == "" {
		base = DefaultChatURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid chat URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid chat URL %q: scheme must be http or https", base)
	}
	q := u.Query()
	q.Set("q", prompt)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// escapeForPrompt flattens a field onto one line for use in prompts
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}
