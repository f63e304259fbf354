package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"EventsDigest/internal/config"
	"EventsDigest/internal/ports"
)

// DefaultSystemPrompt constrains the model to answer with one category name.
const DefaultSystemPrompt = `You are an expert event categorizer for AI-related events. Categorize each event into exactly one of these categories:

- AI: Core AI/ML topics - artificial intelligence, machine learning, deep learning, neural networks, LLMs, AGI, data science, computer vision, NLP, generative AI, AI research, Model Context Protocol (MCP), AI security, AI safety
- Product: AI product management, product strategy, building AI products, AI-powered products
- Engineering: AI/ML engineering, AI infrastructure, tooling, prompt engineering, MLOps, software development, programming languages (PHP, Python, Java, Kafka, etc.)
- Business: AI startups, entrepreneurship, business strategy, funding, market opportunities, consulting
- UX: AI UX design, designing for AI products, AI art, generative design, creative tools, human-AI interaction
- Lifestyle: community events, networking, discussions, philosophy, ethics discussions, casual meetups
- Other: events that don't fit the above categories

Examples:
- "AmsterdamPHP Monthly Meeting" -> Engineering
- "AI Hackday Amsterdam" -> AI
- "Apache Kafka x WarpStream" -> Engineering
- "Model Context Protocol Risks and Security Requirements" -> AI

Your response must be exactly one word: AI, Product, Engineering, Business, UX, Lifestyle, or Other.`

// ChatGPTClient implements ports.Classifier backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxTokens    int64
	temperature  float64
	configured   bool
}

var _ ports.Classifier = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. Retries are disabled:
// a failed call is reported to the categorizer, which falls back to Other.
func NewChatGPTClient(cfg config.OpenAIConfig, llmCfg config.LLMConfig) *ChatGPTClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: 20 * time.Second}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ChatGPTClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		maxTokens:    int64(llmCfg.MaxTokens),
		temperature:  llmCfg.Temperature,
		configured:   cfg.APIKey != "" && cfg.Model != "",
	}
}

// Classify sends the event prompt and returns the raw label text.
func (c *ChatGPTClient) Classify(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if !c.configured {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return DefaultSystemPrompt
	}
	return prompt
}
