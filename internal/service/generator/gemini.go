package generator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/zhouzirui/visionthread/backend/internal/config"
	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// geminiMaxRetries bounds re-attempts against a transiently overloaded model.
const geminiMaxRetries = 3

// Gemini generates narratives through the Google Gemini vision API. It is the
// reference adapter and the only one that retries: overloaded upstream
// failures back off linearly (2s, 4s, 6s) before surfacing a terminal error.
type Gemini struct {
	client *genai.Client
	cfg    config.AIConfig
	sleep  func(time.Duration)
}

// NewGemini builds the Gemini adapter from configuration.
func NewGemini(ctx context.Context, cfg config.AIConfig) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, cfg: cfg, sleep: time.Sleep}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// AnalyzeImage implements Generator with the overloaded-retry policy.
func (g *Gemini) AnalyzeImage(ctx context.Context, img Image, previous []story.ContextChapter, st style.Style) (Result, error) {
	for attempt := 0; ; attempt++ {
		result, err := g.analyzeOnce(ctx, img, previous, st)
		if err == nil {
			return result, nil
		}
		if attempt >= geminiMaxRetries || !isOverloaded(err) {
			return Result{}, err
		}

		wait := time.Duration(attempt+1) * 2 * time.Second
		log.Printf("[generator] gemini overloaded, retrying in %s (%d retries left)", wait, geminiMaxRetries-attempt-1)
		g.sleep(wait)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
	}
}

func (g *Gemini) analyzeOnce(ctx context.Context, img Image, previous []story.ContextChapter, st style.Style) (Result, error) {
	gm := g.client.GenerativeModel(g.cfg.GeminiModel)
	gm.ResponseMIMEType = "application/json"
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(buildSystemPrompt(st))}}
	if g.cfg.Temperature != nil {
		gm.SetTemperature(float32(*g.cfg.Temperature))
	}

	resp, err := gm.GenerateContent(ctx,
		genai.ImageData(mimeSubtype(img.MIMEType), img.Data),
		genai.Text(buildContextPrompt(previous)),
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return Result{}, fmt.Errorf("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Result{}, fmt.Errorf("empty content returned from gemini")
	}

	text, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok || string(text) == "" {
		return Result{}, fmt.Errorf("unexpected response format from gemini")
	}

	return decodeResult(string(text)), nil
}

// isOverloaded recognizes the transient capacity failure signature worth
// retrying; everything else is terminal.
func isOverloaded(err error) bool {
	message := err.Error()
	return strings.Contains(message, "503") || strings.Contains(strings.ToLower(message), "overloaded")
}

// mimeSubtype extracts the format gemini expects, e.g. "jpeg" from
// "image/jpeg".
func mimeSubtype(mimeType string) string {
	if _, subtype, ok := strings.Cut(mimeType, "/"); ok {
		return subtype
	}
	return mimeType
}
