package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/zus-planner-poc/server/internal/agent/model"
	logx "github.com/zus-planner-poc/server/pkg/logger"
)

// GeminiBackend answers structured invocations with a Gemini chat model. The
// result schema is embedded in the system prompt and the reply is parsed back
// into raw JSON for validation by the invoker.
type GeminiBackend struct {
	chatModel *gemini.ChatModel
	modelName string
	timeout   time.Duration
}

func NewGeminiBackend(ctx context.Context, cfg model.LLMConfig, timeout time.Duration) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	return &GeminiBackend{
		chatModel: chatModel,
		modelName: cfg.Model,
		timeout:   timeout,
	}, nil
}

func (g *GeminiBackend) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(structuredSystemPrompt(req)),
		schema.UserMessage(req.Prompt),
	}

	start := time.Now()
	out, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).
			Str("prompt_id", req.PromptID).
			Str("schema", req.SchemaName).
			Msg("gemini generate failed")
		return nil, &InvocationError{Err: err}
	}

	g.logUsage(req, out, time.Since(start))

	payload, err := ExtractJSON(out.Content)
	if err != nil {
		return nil, &InvocationError{Err: err}
	}
	return payload, nil
}

func (g *GeminiBackend) logUsage(req Request, out *schema.Message, elapsed time.Duration) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := ComputeCost(usage, ResolvePricing(g.modelName))
	logx.Debug().
		Str("prompt_id", req.PromptID).
		Str("model", g.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Dur("latency", elapsed).
		Msg("LLM usage")
}

func structuredSystemPrompt(req Request) string {
	return fmt.Sprintf(
		"Respond with a single JSON object conforming to the %s schema below. "+
			"No prose, no code fences, no fields outside the schema.\n\nSchema:\n%s",
		req.SchemaName, string(req.Schema),
	)
}

var _ Backend = (*GeminiBackend)(nil)
