package classifier

import (
	"context"
	"os"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jingkaihe/skillharvest/pkg/logger"
)

// OpenAIClassifier classifies via an OpenAI-compatible chat completions
// endpoint. With a custom base URL this covers local inference servers
// (ollama, vllm, llama.cpp) as well as the hosted OpenAI API. The endpoint
// choice deliberately does not enter the cache key: verdicts are keyed on
// model and prompt, not on where the model happens to run.
type OpenAIClassifier struct {
	client *openai.Client
}

// NewOpenAIClassifier creates a classifier against baseURL, or the OpenAI
// default when baseURL is empty. The API key comes from OPENAI_API_KEY; local
// servers usually accept any value.
func NewOpenAIClassifier(baseURL string) *OpenAIClassifier {
	cfg := openai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClassifier{client: openai.NewClientWithConfig(cfg)}
}

// Classify sends one classification request and parses the verdict.
func (c *OpenAIClassifier) Classify(ctx context.Context, in Input) (Verdict, error) {
	req := openai.ChatCompletionRequest{
		Model:     in.Model,
		MaxTokens: maxVerdictTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(in.Content)},
		},
	}

	var resp openai.ChatCompletionResponse
	err := retry.Do(
		func() error {
			r, err := c.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.RetryIf(isRetryableOpenAIError),
		retry.Attempts(retryAttempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying openai classification request")
		}),
	)
	if err != nil {
		return Verdict{}, errors.Wrap(err, "openai classification request failed")
	}

	if len(resp.Choices) == 0 {
		return Verdict{}, errors.Wrap(ErrMalformedVerdict, "no choices in openai response")
	}
	return ParseVerdict(resp.Choices[0].Message.Content)
}

func isRetryableOpenAIError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	// everything else is a connection-level failure (refused, reset, timeout)
	return true
}
