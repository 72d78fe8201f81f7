package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/sashabaranov/go-openai"
)

const (
	generatorMaxTokens   = 2048
	generatorTemperature = 0.7

	generatorSystemPrompt = `You are an expert tweet writer.
Based on the provided transcription of a conversation, generate a list of 5-10 potential tweets.
The tweets should be engaging, concise, and relevant to the key topics in the conversation.
Each tweet must be 280 characters or less.
Return the tweets as a JSON array of strings. For example: ["This is a tweet.", "This is another tweet."].
Do not include any other text or explanation in your response, only the JSON array.`
)

var (
	ErrGeneratorUnavailable = errors.New("tweet generator is not configured")
	ErrEmptyTranscript      = errors.New("transcript is empty")
	ErrGeneratorResponse    = errors.New("tweet generator returned an unusable response")
)

// ChatClient is the part of the chat completion API the generator needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type GeneratorService interface {
	GenerateTweets(ctx context.Context, transcript string) ([]string, error)
}

type generatorService struct {
	client ChatClient
	model  string
}

// NewGeneratorService builds the client from configuration. Azure OpenAI is
// used when an Azure endpoint is set. Without an API key every call fails
// with ErrGeneratorUnavailable.
func NewGeneratorService(cfg config.OpenAI) GeneratorService {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &generatorService{model: cfg.Model}
	}

	var clientCfg openai.ClientConfig
	model := cfg.Model
	if cfg.AzureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.AzureDeployment != "" {
			deployment := cfg.AzureDeployment
			clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
			model = deployment
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}

	return NewGeneratorServiceWithClient(openai.NewClientWithConfig(clientCfg), model)
}

func NewGeneratorServiceWithClient(client ChatClient, model string) GeneratorService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &generatorService{client: client, model: model}
}

func (g *generatorService) GenerateTweets(ctx context.Context, transcript string) ([]string, error) {
	if g.client == nil {
		return nil, ErrGeneratorUnavailable
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: generatorTemperature,
		MaxTokens:   generatorMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		slog.Error("chat completion failed", "error", err)
		return nil, fmt.Errorf("generate tweets: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrGeneratorResponse)
	}

	tweets, err := parseTweetList(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	slog.Info("generated tweets", "count", len(tweets))
	return tweets, nil
}

// parseTweetList reads the JSON array out of a model reply, tolerating code
// fences and surrounding prose. Blank and over-long entries are dropped.
func parseTweetList(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrGeneratorResponse)
	}

	var raw []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorResponse, err)
	}

	tweets := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || utf8.RuneCountInString(t) > models.MaxPostLength {
			continue
		}
		tweets = append(tweets, t)
	}
	return tweets, nil
}
