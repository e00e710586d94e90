package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// OpenAICompleter implements Completer with the official OpenAI SDK chat completions API
type OpenAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
	log         *logger.Logger
}

// NewOpenAICompleter creates a completer for the given chat model
func NewOpenAICompleter(apiKey, model string, temperature float64, opts ...option.RequestOption) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	return &OpenAICompleter{
		client:      openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)...),
		model:       model,
		temperature: temperature,
		log:         logger.Get().With("component", "openai_completer", "model", model),
	}, nil
}

// Complete sends prompt as a single user message
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, maxLen int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if maxLen > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxLen))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(errors.ErrSynthesis, "openai returned no choices")
	}

	c.log.Debug("Completion received",
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrTimeout, "openai: "+err.Error())
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return errors.Wrap(errors.ErrRateLimitExceeded, "openai: "+err.Error())
		case apiErr.StatusCode >= 500:
			return errors.Wrap(errors.ErrUnavailable, "openai: "+err.Error())
		default:
			return errors.Wrap(errors.ErrSynthesis, "openai: "+err.Error())
		}
	}

	// network level failure
	return errors.Wrap(errors.ErrUnavailable, "openai: "+err.Error())
}
