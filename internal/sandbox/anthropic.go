package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/adcraft-ai/adcraft/internal/observability"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// AnthropicProvider generates content with the Anthropic Messages API.
type AnthropicProvider struct {
	api     *anthropic.Client
	model   anthropic.Model
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAnthropicProvider creates the provider from its config section.
// logger and metrics may be nil.
func NewAnthropicProvider(cfg ProviderConfig, logger *slog.Logger, metrics *observability.Metrics) *AnthropicProvider {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := anthropic.NewClient(opts...)
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &AnthropicProvider{
		api:     &client,
		model:   anthropic.Model(cfg.Model),
		logger:  logger,
		metrics: metrics,
	}
}

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

func (p *AnthropicProvider) Variants(ctx context.Context, params tools.Params, count int) ([]string, error) {
	raw, err := p.complete(ctx, variantsSystemPrompt(params.Kind(), count), variantsUserPrompt(params), 1024)
	if err != nil {
		return nil, err
	}
	return parseVariantTexts(raw, count)
}

func (p *AnthropicProvider) Assets(ctx context.Context, params tools.Params, variants []tools.Variant) ([]tools.Asset, error) {
	raw, err := p.complete(ctx, assetsSystemPrompt(params.Kind()), assetsUserPrompt(params, variants), 4096)
	if err != nil {
		return nil, err
	}
	return parseAssets(params.Kind(), raw, len(variants))
}

func (p *AnthropicProvider) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	start := time.Now()
	msg, err := p.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	p.record(err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}
	p.logger.Debug("anthropic completion finished",
		"model", p.model, "elapsed", time.Since(start))

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}

func (p *AnthropicProvider) record(ok bool, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	p.metrics.RecordProviderRequest(ProviderAnthropic, string(p.model), status, elapsed.Seconds())
}
