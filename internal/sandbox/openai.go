package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/adcraft-ai/adcraft/internal/observability"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// OpenAIProvider generates content with the OpenAI chat completions API.
type OpenAIProvider struct {
	client  openai.Client
	model   openai.ChatModel
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewOpenAIProvider creates the provider from its config section.
// logger and metrics may be nil.
func NewOpenAIProvider(cfg ProviderConfig, logger *slog.Logger, metrics *observability.Metrics) *OpenAIProvider {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   openai.ChatModel(cfg.Model),
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

func (p *OpenAIProvider) Variants(ctx context.Context, params tools.Params, count int) ([]string, error) {
	raw, err := p.complete(ctx, variantsSystemPrompt(params.Kind(), count), variantsUserPrompt(params), 1024)
	if err != nil {
		return nil, err
	}
	return parseVariantTexts(raw, count)
}

func (p *OpenAIProvider) Assets(ctx context.Context, params tools.Params, variants []tools.Variant) ([]tools.Asset, error) {
	raw, err := p.complete(ctx, assetsSystemPrompt(params.Kind()), assetsUserPrompt(params, variants), 4096)
	if err != nil {
		return nil, err
	}
	return parseAssets(params.Kind(), raw, len(variants))
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(0.8),
	})
	p.record(err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("openai API call: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	p.logger.Debug("openai completion finished",
		"model", completion.Model, "elapsed", time.Since(start))

	text := completion.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}

func (p *OpenAIProvider) record(ok bool, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	p.metrics.RecordProviderRequest(ProviderOpenAI, string(p.model), status, elapsed.Seconds())
}
