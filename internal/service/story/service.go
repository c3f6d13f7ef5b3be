package story

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
	"github.com/zhouzirui/visionthread/backend/internal/service/generator"
)

// Service orchestrates one uploaded image plus a session into one stored
// chapter, using prior chapters as generation context. A generator failure
// aborts the whole operation; no partial chapter is ever stored.
type Service struct {
	store      *story.Store
	styles     style.Store
	generator  generator.Generator
	hub        *events.Hub
	maxImage   int64
	httpClient *http.Client
}

// NewService wires the chapter orchestration. A nil generator leaves the
// service running in degraded mode where analyze operations fail with
// ErrGeneratorUnavailable.
func NewService(store *story.Store, styles style.Store, gen generator.Generator, hub *events.Hub, maxImageBytes int64) *Service {
	return &Service{
		store:      store,
		styles:     styles,
		generator:  gen,
		hub:        hub,
		maxImage:   maxImageBytes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// MaxImageBytes reports the upload size cap for the HTTP surface.
func (s *Service) MaxImageBytes() int64 {
	return s.maxImage
}

// GeneratorReady reports whether a narrative provider is wired in.
func (s *Service) GeneratorReady() bool {
	return s.generator != nil
}

// CreateChapterFromImage validates the payload, gathers prior-chapter context,
// invokes the generator and appends the resulting chapter. imageURLOverride
// replaces the stored data-URL reference when the image came from a URL.
func (s *Service) CreateChapterFromImage(ctx context.Context, sessionID string, img generator.Image, imageURLOverride, styleID string) (story.Chapter, error) {
	if err := s.validateImage(img); err != nil {
		return story.Chapter{}, err
	}

	st, err := s.resolveStyle(styleID)
	if err != nil {
		return story.Chapter{}, err
	}

	if s.generator == nil {
		return story.Chapter{}, ErrGeneratorUnavailable
	}

	previous := s.store.List(sessionID)
	contextChapters := make([]story.ContextChapter, 0, len(previous))
	for _, chapter := range previous {
		contextChapters = append(contextChapters, story.ContextChapter{
			Narrative:     chapter.Narrative,
			Tags:          chapter.Tags,
			ChapterNumber: chapter.ChapterNumber,
		})
	}

	result, err := s.generator.AnalyzeImage(ctx, img, contextChapters, st)
	if err != nil {
		return story.Chapter{}, fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	imageURL := imageURLOverride
	if imageURL == "" {
		imageURL = img.DataURL()
	}

	chapter := s.store.Append(sessionID, story.Draft{
		ImageURL:    imageURL,
		Narrative:   result.Narrative,
		Connections: result.Connections,
		Tags:        result.Tags,
	})

	log.Printf("[story] appended chapter %d for session %s", chapter.ChapterNumber, sessionID)
	s.hub.Publish(events.Event{Type: events.TypeChapter, SessionID: sessionID, Chapter: &chapter})
	return chapter, nil
}

// CreateChapterFromURL analyzes an image referenced by URL. Inline base64
// content wins when supplied; otherwise the bytes are fetched over HTTP. The
// stored image reference stays the caller's URL.
func (s *Service) CreateChapterFromURL(ctx context.Context, sessionID, imageURL, base64Image, styleID string) (story.Chapter, error) {
	var img generator.Image
	if base64Image != "" {
		data, err := base64.StdEncoding.DecodeString(base64Image)
		if err != nil {
			return story.Chapter{}, &ValidationError{Reason: "invalid base64 image data"}
		}
		img = generator.Image{Data: data, MIMEType: http.DetectContentType(data)}
	} else {
		fetched, err := s.fetchImage(ctx, imageURL)
		if err != nil {
			return story.Chapter{}, err
		}
		img = fetched
	}

	return s.CreateChapterFromImage(ctx, sessionID, img, imageURL, styleID)
}

// ResetStory drops every chapter of the session; the session itself stays
// usable immediately afterwards.
func (s *Service) ResetStory(_ context.Context, sessionID string) {
	s.store.Clear(sessionID)
	log.Printf("[story] cleared chapters for session %s", sessionID)
	s.hub.Publish(events.Event{Type: events.TypeReset, SessionID: sessionID})
}

// ListChapters returns the session's chapters in ascending order.
func (s *Service) ListChapters(_ context.Context, sessionID string) []story.Chapter {
	return s.store.List(sessionID)
}

// ExportStory reshapes the chapter list into a downloadable story document.
func (s *Service) ExportStory(_ context.Context, sessionID string) story.Export {
	chapters := s.store.List(sessionID)
	exported := make([]story.ExportChapter, 0, len(chapters))
	for _, chapter := range chapters {
		exported = append(exported, story.ExportChapter{
			ChapterNumber: chapter.ChapterNumber,
			Narrative:     chapter.Narrative,
			Connections:   chapter.Connections,
			Tags:          chapter.Tags,
			CreatedAt:     chapter.CreatedAt,
		})
	}

	return story.Export{
		Title:     fmt.Sprintf("Visual Story - %d Chapters", len(chapters)),
		CreatedAt: time.Now().UTC(),
		Chapters:  exported,
	}
}

// validateImage fails fast on client-caused payload problems, before any
// upstream call happens.
func (s *Service) validateImage(img generator.Image) error {
	if len(img.Data) == 0 {
		return &ValidationError{Reason: "no image data provided"}
	}
	if int64(len(img.Data)) > s.maxImage {
		return &ValidationError{Reason: fmt.Sprintf("image exceeds the %d byte limit", s.maxImage)}
	}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return &ValidationError{Reason: "only image files are allowed"}
	}
	return nil
}

func (s *Service) resolveStyle(styleID string) (style.Style, error) {
	if styleID == "" {
		styleID = style.DefaultID
	}
	st, ok := s.styles.FindByID(styleID)
	if !ok {
		return style.Style{}, &ValidationError{Reason: fmt.Sprintf("unknown narrative style %q", styleID)}
	}
	return st, nil
}

func (s *Service) fetchImage(ctx context.Context, imageURL string) (generator.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return generator.Image{}, &ValidationError{Reason: "invalid image URL"}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return generator.Image{}, fmt.Errorf("failed to fetch image from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return generator.Image{}, fmt.Errorf("failed to fetch image from URL: status %d", resp.StatusCode)
	}

	data, err := readAllLimited(resp.Body, s.maxImage)
	if err != nil {
		return generator.Image{}, err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return generator.Image{Data: data, MIMEType: mimeType}, nil
}
