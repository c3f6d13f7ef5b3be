package generator

import (
	"context"
	"encoding/base64"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// Image is one uploaded image payload handed to a provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the image as an inline data reference.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Result is the structured payload every provider must produce for a chapter.
type Result struct {
	Narrative   string   `json:"narrative"`
	Connections []string `json:"connections"`
	Tags        []string `json:"tags"`
	Theme       string   `json:"theme"`
}

// Generator turns an image plus prior-chapter context into the next chapter's
// narrative. Implementations are interchangeable; a deployment wires exactly
// one at startup. An error means the whole call failed and no chapter may be
// stored; a malformed upstream payload is not an error, the implementation
// substitutes field fallbacks instead.
type Generator interface {
	AnalyzeImage(ctx context.Context, img Image, previous []story.ContextChapter, st style.Style) (Result, error)
}
