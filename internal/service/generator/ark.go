package generator

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// Ark generates narratives through a Volcengine Ark multimodal chat model.
type Ark struct {
	chatModel model.ChatModel
}

// NewArk wraps an already configured Ark chat model.
func NewArk(chatModel model.ChatModel) *Ark {
	return &Ark{chatModel: chatModel}
}

// AnalyzeImage sends the image as an inline data URL part together with the
// prior-chapter context and decodes the structured answer.
func (g *Ark) AnalyzeImage(ctx context.Context, img Image, previous []story.ContextChapter, st style.Style) (Result, error) {
	messages := []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(st)),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      img.DataURL(),
						MIMEType: img.MIMEType,
					},
				},
				{
					Type: schema.ChatMessagePartTypeText,
					Text: buildContextPrompt(previous),
				},
			},
		},
	}

	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return Result{}, fmt.Errorf("ark generate failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return Result{}, fmt.Errorf("empty response from ark model")
	}

	log.Printf("[generator] ark produced %d bytes of narrative payload", len(response.Content))
	return decodeResult(response.Content), nil
}
