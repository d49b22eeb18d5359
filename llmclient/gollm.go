package llmclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"
)

// GollmClient implements Client on top of a gollm.LLM backend.
type GollmClient struct {
	provider  string
	model     string
	llm       gollm.LLM
	stopToken string
	retry     RetryPolicy
	callLog   *CallLog
}

// GollmClientOption configures a GollmClient.
type GollmClientOption func(*gollmClientConfig)

type gollmClientConfig struct {
	apiKey      string
	maxTokens   int
	temperature float64
	stopToken   string
	retry       RetryPolicy
	callLog     *CallLog
	extraOpts   []gollm.ConfigOption
}

// WithAPIKey sets the API key. When empty, gollm reads it from the
// provider's environment variable.
func WithAPIKey(key string) GollmClientOption {
	return func(c *gollmClientConfig) { c.apiKey = key }
}

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(n int) GollmClientOption {
	return func(c *gollmClientConfig) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GollmClientOption {
	return func(c *gollmClientConfig) { c.temperature = t }
}

// WithStopToken sets the stop token. The completion is cut at its first
// occurrence and the token is re-appended, so downstream parsing always
// sees a closed call block.
func WithStopToken(token string) GollmClientOption {
	return func(c *gollmClientConfig) { c.stopToken = token }
}

// WithRetryPolicy overrides the default backoff configuration.
func WithRetryPolicy(p RetryPolicy) GollmClientOption {
	return func(c *gollmClientConfig) { c.retry = p }
}

// WithCallLog attaches a structured call log; every Generate call is
// recorded, successful or not.
func WithCallLog(l *CallLog) GollmClientOption {
	return func(c *gollmClientConfig) { c.callLog = l }
}

// WithGollmOptions appends extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmClientOption {
	return func(c *gollmClientConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// NewGollmClient creates a Client for the given provider and model.
func NewGollmClient(provider, model string, opts ...GollmClientOption) (*GollmClient, error) {
	cfg := &gollmClientConfig{
		maxTokens:   4096,
		temperature: 0.7,
		retry:       DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retries handled by RetryPolicy
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmClient{
		provider:  provider,
		model:     model,
		llm:       llm,
		stopToken: cfg.stopToken,
		retry:     cfg.retry,
		callLog:   cfg.callLog,
	}, nil
}

// NewGollmClientFromLLM wraps an existing gollm.LLM instance.
func NewGollmClientFromLLM(provider, model string, llm gollm.LLM, opts ...GollmClientOption) *GollmClient {
	cfg := &gollmClientConfig{retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &GollmClient{
		provider:  provider,
		model:     model,
		llm:       llm,
		stopToken: cfg.stopToken,
		retry:     cfg.retry,
		callLog:   cfg.callLog,
	}
}

// Provider returns the backend provider identifier.
func (c *GollmClient) Provider() string { return c.provider }

// Model returns the model identifier.
func (c *GollmClient) Model() string { return c.model }

// Generate sends the message sequence and returns the completion text.
// Malformed input is rejected before any network call.
func (c *GollmClient) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := ValidateMessages(messages); err != nil {
		c.record(messages, "", err)
		return "", err
	}

	prompt := c.buildPrompt(messages)

	text, err := Retry(ctx, c.retry, func(ctx context.Context) (string, error) {
		out, genErr := c.llm.Generate(ctx, prompt)
		if genErr != nil {
			return "", classifyError(c.provider, genErr)
		}
		return out, nil
	})
	if err != nil {
		c.record(messages, "", err)
		return "", err
	}

	if text == "" {
		err := &ClientError{Message: "empty completion from provider", Provider: c.provider, Retryable: true}
		c.record(messages, "", err)
		return "", err
	}

	text = c.applyStopToken(text)
	c.record(messages, text, nil)
	return text, nil
}

// buildPrompt folds the message sequence into a gollm prompt: system
// messages become the system prompt, the rest become the conversation body
// in order.
func (c *GollmClient) buildPrompt(messages []Message) *gollm.Prompt {
	var system strings.Builder
	var body []string

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system.WriteString(m.Content)
			system.WriteString("\n")
		case RoleUser:
			body = append(body, m.Content)
		case RoleAssistant:
			if m.Content != "" {
				body = append(body, "[Assistant]: "+m.Content)
			}
		}
	}

	promptText := strings.Join(body, "\n")
	if promptText == "" {
		promptText = "Continue."
	}

	var promptOpts []gollm.PromptOption
	if system.Len() > 0 {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(system.String()), gollm.CacheTypeEphemeral))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyStopToken truncates the completion at the first stop token and
// re-appends it. The token is appended even when absent so a completion
// cut off mid-block still reaches the parser as a closed block.
func (c *GollmClient) applyStopToken(text string) string {
	if c.stopToken == "" {
		return text
	}
	head, _, _ := strings.Cut(text, c.stopToken)
	return strings.TrimSpace(head) + "\n" + c.stopToken
}

func (c *GollmClient) record(messages []Message, response string, err error) {
	if c.callLog == nil {
		return
	}
	c.callLog.Record(c.model, len(messages), response, err)
}
