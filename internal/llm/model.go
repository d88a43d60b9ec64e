// Package llm provides LLM generation and embedding services using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhoffmann/deepscout/internal/config"
	"github.com/anhoffmann/deepscout/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	collector *metrics.Collector
}

// GenerateOptions tune a single generation call.
type GenerateOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config, collector *metrics.Collector) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		collector: collector,
	}, nil
}

// NewModelFromLLM wraps an existing langchaingo model (used by tests).
func NewModelFromLLM(model llms.Model, name string) *Model {
	return &Model{llm: model, modelName: name}
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// Generate generates text from a prompt with optional system prompt,
// temperature and token cap. Failures wrap ErrGeneration.
func (m *Model) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if opts.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	callOpts := make([]llms.CallOption, 0, 2)
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	slog.Debug("generating", "model", m.modelName, "prompt_len", len(prompt))
	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages, callOpts...)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("generation failed", "model", m.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", ErrGeneration)
	}

	choice := response.Choices[0]
	if m.collector != nil {
		in, out := tokenCounts(choice.GenerationInfo)
		m.collector.RecordLLMUsage(metrics.OpLLMGenerate, duration, in, out)
	}

	slog.Debug("generation complete", "model", m.modelName, "duration_ms", duration.Milliseconds(), "output_len", len(choice.Content))
	return choice.Content, nil
}

// tokenCounts extracts token usage from provider generation info when present.
func tokenCounts(info map[string]any) (in, out int64) {
	if info == nil {
		return 0, 0
	}
	if v, ok := info["PromptTokens"].(int); ok {
		in = int64(v)
	}
	if v, ok := info["CompletionTokens"].(int); ok {
		out = int64(v)
	}
	return in, out
}
