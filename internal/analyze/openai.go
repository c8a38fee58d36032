package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mkang/heritaged/internal/model"
)

// OpenAIProvider classifies assets through OpenAI's Chat Completions API
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a new OpenAI-backed provider
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

const classifyPrompt = `You classify personal digital assets for estate planning.
Given file metadata, respond with ONLY a JSON object:
{"category": one of [documents, photos, videos, emails, financialAssets, digitalCreations, socialMedia, credentials, other],
 "subcategory": short label,
 "importance": integer 1-10,
 "sentiment": float -1..1,
 "tags": up to 5 short strings,
 "entities": names of people/organizations mentioned, possibly empty}`

// Analyze classifies an asset via a chat completion constrained to JSON
func (p *OpenAIProvider) Analyze(ctx context.Context, info model.AssetInfo) (*model.ClassificationResult, error) {
	chatModel := p.model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	userMsg := fmt.Sprintf("fileName: %s\nfileType: %s\nmimeType: %s\nfileSize: %d\ndescription: %s",
		info.FileName, info.FileType, info.MimeType, info.FileSize, info.Description)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var parsed analyzeResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse classification JSON: %w", err)
	}

	result := &model.ClassificationResult{
		Category:    model.Category(parsed.Category),
		Subcategory: parsed.Subcategory,
		Importance:  parsed.Importance,
		Sentiment:   parsed.Sentiment,
		Tags:        parsed.Tags,
		Entities:    parsed.Entities,
		Source:      model.SourceRemoteAI,
	}
	if !result.Category.Valid() {
		result.Category = model.CategoryOther
	}
	result.Clamp()
	return result, nil
}
