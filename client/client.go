package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"tender-crew/agent"
	"tender-crew/ratelimiter"
)

const (
	DefaultModel             = "gpt-4o-mini"
	DefaultTemperature       = 0.7
	DefaultRequestsPerMinute = 60
	DefaultTokensPerMinute   = 90000
)

var modelPricing = map[string]struct {
	InputCostPer1K  float64
	OutputCostPer1K float64
}{
	"gpt-4o":        {0.0025, 0.01},
	"gpt-4o-mini":   {0.00015, 0.0006},
	"gpt-4-turbo":   {0.01, 0.03},
	"gpt-4":         {0.03, 0.06},
	"gpt-3.5-turbo": {0.0015, 0.002},
	"gpt-5":         {0.005, 0.015},
	"gpt-5-mini":    {0.0003, 0.0012},
	"gpt-5-nano":    {0.0001, 0.0004},
}

// ErrEmptyResponse is returned when the API answers without any choice.
var ErrEmptyResponse = errors.New("no response from OpenAI")

// APIClient generates text through the OpenAI chat completions API while
// staying under the configured request and token quotas.
type APIClient struct {
	client         openai.Client
	model          string
	temperature    float64
	logger         *log.Logger
	countTokens    func(string) int
	usage          *UsageTracker
	requestLimiter *ratelimiter.TokenBucket
	tokenLimiter   *ratelimiter.TokenBucket
}

type APIClientConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
	TokensPerMinute   int
	Logger            *log.Logger
	// Temperature defaults to DefaultTemperature when nil.
	Temperature *float64
	// CountTokens estimates prompt size for the token limiter. Defaults to a
	// tiktoken encoder for Model.
	CountTokens func(string) int
	Usage       *UsageTracker
}

var _ agent.Generator = (*APIClient)(nil)

// Temperature returns a pointer to v for APIClientConfig.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

func NewAPIClient(config APIClientConfig) *APIClient {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	temperature := DefaultTemperature
	if config.Temperature != nil {
		temperature = *config.Temperature
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if config.TokensPerMinute <= 0 {
		config.TokensPerMinute = DefaultTokensPerMinute
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.CountTokens == nil {
		config.CountTokens = NewTokenCounter(config.Model, config.Logger)
	}
	if config.Usage == nil {
		config.Usage = NewUsageTracker()
	}

	// Generation failures surface to the crew as-is, so the SDK must not retry.
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &APIClient{
		client:         openai.NewClient(opts...),
		model:          config.Model,
		temperature:    temperature,
		logger:         config.Logger,
		countTokens:    config.CountTokens,
		usage:          config.Usage,
		requestLimiter: ratelimiter.PerMinute(config.RequestsPerMinute),
		tokenLimiter:   ratelimiter.PerMinute(config.TokensPerMinute),
	}
}

// Generate sends prompt as a single user message and returns the first choice.
func (c *APIClient) Generate(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()
	worker := agent.WorkerFromContext(ctx)
	inputTokens := c.countTokens(prompt)

	if err := c.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("request rate limit: %w", err)
	}
	if err := c.tokenLimiter.WaitN(ctx, inputTokens); err != nil {
		return "", fmt.Errorf("token rate limit: %w", err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Error("OpenAI API request failed",
			"error", err,
			"worker", worker,
			"model", c.model,
			"input_tokens", inputTokens,
			"duration", duration,
		)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	if resp.Usage.PromptTokens > 0 {
		inputTokens = int(resp.Usage.PromptTokens)
	}
	outputTokens := int(resp.Usage.CompletionTokens)
	cost := CalculateCost(c.model, inputTokens, outputTokens)
	c.usage.RecordUsage(worker, inputTokens, outputTokens, cost)

	c.logger.Info("OpenAI API request completed",
		"worker", worker,
		"model", c.model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"expected_cost_usd", cost,
		"duration", duration,
		"request_id", resp.ID,
	)

	return resp.Choices[0].Message.Content, nil
}

// Usage returns the tracker this client records into.
func (c *APIClient) Usage() *UsageTracker {
	return c.usage
}

// Model returns the chat model used for every request.
func (c *APIClient) Model() string {
	return c.model
}

func (c *APIClient) Close() {
	c.requestLimiter.Stop()
	c.tokenLimiter.Stop()
}

// CalculateCost estimates the USD cost of a call. Unknown models are priced
// like gpt-3.5-turbo.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, exists := modelPricing[model]
	if !exists {
		pricing = modelPricing["gpt-3.5-turbo"]
	}

	inputCost := float64(inputTokens) / 1000.0 * pricing.InputCostPer1K
	outputCost := float64(outputTokens) / 1000.0 * pricing.OutputCostPer1K
	return inputCost + outputCost
}
