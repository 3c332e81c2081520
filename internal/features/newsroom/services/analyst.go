package services

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
)

// chatCompleter is the slice of the OpenAI client the analyst needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AnalystService turns a day's collected headlines into a one-page market
// briefing using a chat completion model.
type AnalystService struct {
	client chatCompleter
	logger *core.Logger
	model  string
}

// NewAnalystService creates an analyst backed by the OpenAI API.
func NewAnalystService(logger *core.Logger, apiKey, model string) *AnalystService {
	return &AnalystService{
		client: openai.NewClient(apiKey),
		logger: logger,
		model:  model,
	}
}

// newAnalystWithClient wires a custom completion client, used in tests.
func newAnalystWithClient(logger *core.Logger, client chatCompleter, model string) *AnalystService {
	return &AnalystService{
		client: client,
		logger: logger,
		model:  model,
	}
}

// WriteBriefing produces the Markdown briefing for the given articles.
func (a *AnalystService) WriteBriefing(ctx context.Context, articles []docstore.Article) (string, error) {
	if len(articles) == 0 {
		return "", core.NewValidationError("no articles to analyze", nil)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a professional financial analyst writing a daily market briefing.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: briefingPrompt(articles),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.logger.Info("Generated briefing", "articles", len(articles), "length", len(content))
	return content, nil
}

// briefingPrompt lists the headlines and states the report requirements.
func briefingPrompt(articles []docstore.Article) string {
	var b strings.Builder
	b.WriteString("Write today's daily market briefing from the collected headlines below.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("1. Summarize the overall market mood in one paragraph.\n")
	b.WriteString("2. Pick the three most important stories and analyze each in depth.\n")
	b.WriteString("3. Close with investor takeaways from both a Bull and a Bear perspective.\n")
	b.WriteString("4. Format the whole report as readable Markdown.\n\n")
	b.WriteString("Headlines:\n")
	for i, article := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, article.Title)
	}
	return b.String()
}
