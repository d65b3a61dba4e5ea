package hint

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `You are the "Game Master" for a tricky puzzle game called MindMaster.
The player is stuck on a level.

Level Question: "%s"
Context of current state: "%s"

Provide a short, witty, and sarcastic hint that nudges them in the right direction without explicitly giving the answer immediately.
Keep it under 20 words.`

type GeminiRequester struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiRequester(apiKey, model string) *GeminiRequester {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &GeminiRequester{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (g *GeminiRequester) Model() string { return g.model }

func (g *GeminiRequester) RequestHint(ctx context.Context, question, contextLabel string) (string, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(question, contextLabel)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *GeminiRequester) clientFor(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

func Prompt(question, contextLabel string) string {
	return fmt.Sprintf(promptTemplate, question, contextLabel)
}
