package classifier

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/logger"
)

const (
	maxVerdictTokens = 256
	retryAttempts    = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// AnthropicClassifier classifies via the Anthropic hosted API. The API key is
// read from ANTHROPIC_API_KEY by the SDK.
type AnthropicClassifier struct {
	client anthropic.Client
}

// NewAnthropicClassifier creates a hosted-API classifier.
func NewAnthropicClassifier() *AnthropicClassifier {
	return &AnthropicClassifier{client: anthropic.NewClient()}
}

// Classify sends one classification request and parses the verdict. Transport
// errors are retried with backoff; what survives the retries is returned to
// the orchestrator as a per-file failure.
func (c *AnthropicClassifier) Classify(ctx context.Context, in Input) (Verdict, error) {
	prompt := BuildPrompt(in.Content)

	var message *anthropic.Message
	err := retry.Do(
		func() error {
			m, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(in.Model),
				MaxTokens: maxVerdictTokens,
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
				},
			})
			if err != nil {
				return err
			}
			message = m
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying anthropic classification request")
		}),
	)
	if err != nil {
		return Verdict{}, errors.Wrap(err, "anthropic classification request failed")
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return ParseVerdict(block.Text)
		}
	}
	return Verdict{}, errors.Wrap(ErrMalformedVerdict, "no text content in anthropic response")
}
