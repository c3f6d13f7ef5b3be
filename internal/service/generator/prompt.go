package generator

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// buildSystemPrompt describes the storyteller role, the requested narrative
// style and the exact JSON shape providers must answer with.
func buildSystemPrompt(st style.Style) string {
	var builder strings.Builder
	builder.WriteString(`You are a creative storyteller and image analyst. Your task is to analyze images and create compelling narratives that connect to previous images in a continuous story.

For each image, provide:
1. A detailed, creative narrative (150-200 words) that describes the image and connects it to previous chapters
2. Specific connections to previous images/chapters (if any)
3. Relevant tags that capture key themes, objects, or emotions
4. An overall theme for this chapter`)

	builder.WriteString("\n\nNarrative style: ")
	builder.WriteString(st.Name)
	builder.WriteString(" (")
	builder.WriteString(st.Tone)
	builder.WriteString(")\n")
	builder.WriteString(st.PromptHint)

	builder.WriteString(`

Respond with JSON in this exact format:
{
  "narrative": "detailed story narrative here",
  "connections": ["connection to previous chapter 1", "connection to previous chapter 2"],
  "tags": ["tag1", "tag2", "tag3"],
  "theme": "main theme of this chapter"
}`)

	return builder.String()
}

// buildContextPrompt threads prior chapters into the user instruction. An
// empty context gets the explicit new-story framing rather than an empty
// string, so the model originates instead of continuing.
func buildContextPrompt(previous []story.ContextChapter) string {
	if len(previous) == 0 {
		return "This is the first image in a new story. Analyze it and create an engaging narrative that will serve as the foundation for future chapters."
	}

	var builder strings.Builder
	builder.WriteString("Previous story chapters for context:\n")
	for i, chapter := range previous {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		fmt.Fprintf(&builder, "Chapter %d: %s\nTags: %s",
			chapter.ChapterNumber, chapter.Narrative, strings.Join(chapter.Tags, ", "))
	}
	builder.WriteString("\n\nNow, analyze the new image and continue the story, making creative connections to the previous chapters while maintaining the same narrative tone and style.")
	return builder.String()
}
