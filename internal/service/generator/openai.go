package generator

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/zhouzirui/visionthread/backend/internal/config"
	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// OpenAI generates narratives through the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	cfg    config.AIConfig
}

// NewOpenAI builds the OpenAI adapter from configuration.
func NewOpenAI(cfg config.AIConfig) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not configured")
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	return &OpenAI{client: client, cfg: cfg}, nil
}

// AnalyzeImage sends the image as an image_url content part and requests a
// JSON-object response.
func (g *OpenAI) AnalyzeImage(ctx context.Context, img Image, previous []story.ContextChapter, st style.Style) (Result, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.cfg.OpenAIModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(st)),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(buildContextPrompt(previous)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: img.DataURL(),
				}),
			}),
		},
		MaxTokens: openai.Int(800),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if g.cfg.Temperature != nil {
		params.Temperature = openai.Float(*g.cfg.Temperature)
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("openai generate failed: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return Result{}, fmt.Errorf("empty response from openai")
	}

	return decodeResult(completion.Choices[0].Message.Content), nil
}
