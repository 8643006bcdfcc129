package provider

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiClient generates report text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	tracer trace.Tracer
}

func NewGeminiClient(ctx context.Context, apiKey, model string, tracer trace.Tracer) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, tracer: tracer}, nil
}

func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	_, span := c.tracer.Start(ctx, "gemini.generate-text")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(prompt),
			},
		},
	}, nil)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}

	span.SetAttributes(attribute.Int("llm.reply_length", len(text)))
	return text, nil
}
