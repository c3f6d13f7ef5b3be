package story_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	storyModel "github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
	"github.com/zhouzirui/visionthread/backend/internal/service/generator"
	storyService "github.com/zhouzirui/visionthread/backend/internal/service/story"
)

type fakeGenerator struct {
	result      generator.Result
	err         error
	calls       int
	lastContext []storyModel.ContextChapter
	lastStyle   style.Style
}

func (f *fakeGenerator) AnalyzeImage(_ context.Context, _ generator.Image, previous []storyModel.ContextChapter, st style.Style) (generator.Result, error) {
	f.calls++
	f.lastContext = previous
	f.lastStyle = st
	if f.err != nil {
		return generator.Result{}, f.err
	}
	return f.result, nil
}

func newTestService(gen generator.Generator) (*storyService.Service, *storyModel.Store, *events.Hub) {
	store := storyModel.NewStore()
	hub := events.NewHub()
	styles := style.NewMemoryStore(style.Seed())
	svc := storyService.NewService(store, styles, gen, hub, 10<<20)
	return svc, store, hub
}

func pngImage(size int) generator.Image {
	return generator.Image{Data: make([]byte, size), MIMEType: "image/png"}
}

func TestCreateChapterFromImage(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{
		Narrative:   "a red door in an empty street",
		Connections: []string{},
		Tags:        []string{"door", "street"},
		Theme:       "threshold",
	}}
	svc, _, hub := newTestService(gen)

	eventCh, cancel := hub.Subscribe("session-a")
	defer cancel()

	chapter, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(64), "", "")
	if err != nil {
		t.Fatalf("CreateChapterFromImage err: %v", err)
	}

	if chapter.ChapterNumber != 1 {
		t.Fatalf("expected chapter number 1, got %d", chapter.ChapterNumber)
	}
	if chapter.Narrative != "a red door in an empty street" {
		t.Fatalf("unexpected narrative %q", chapter.Narrative)
	}
	if !strings.HasPrefix(chapter.ImageURL, "data:image/png;base64,") {
		t.Fatalf("expected inline data reference, got %q", chapter.ImageURL)
	}
	if gen.lastStyle.ID != style.DefaultID {
		t.Fatalf("expected default style, got %q", gen.lastStyle.ID)
	}

	event := <-eventCh
	if event.Type != events.TypeChapter || event.Chapter == nil || event.Chapter.ID != chapter.ID {
		t.Fatalf("expected chapter event, got %+v", event)
	}
}

func TestCreateChapterThreadsPriorContext(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Narrative: "n", Connections: []string{}, Tags: []string{"t"}}}
	svc, _, _ := newTestService(gen)
	ctx := context.Background()

	if _, err := svc.CreateChapterFromImage(ctx, "session-a", pngImage(8), "", ""); err != nil {
		t.Fatalf("first chapter err: %v", err)
	}
	second, err := svc.CreateChapterFromImage(ctx, "session-a", pngImage(8), "", "")
	if err != nil {
		t.Fatalf("second chapter err: %v", err)
	}

	if second.ChapterNumber != 2 {
		t.Fatalf("expected chapter number 2, got %d", second.ChapterNumber)
	}
	if len(gen.lastContext) != 1 {
		t.Fatalf("expected 1 context chapter, got %d", len(gen.lastContext))
	}
	got := gen.lastContext[0]
	if got.Narrative != "n" || got.ChapterNumber != 1 || len(got.Tags) != 1 {
		t.Fatalf("unexpected context chapter: %+v", got)
	}
}

func TestCreateChapterFirstImageEmptyContext(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Narrative: "n"}}
	svc, _, _ := newTestService(gen)

	if _, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(8), "", ""); err != nil {
		t.Fatalf("CreateChapterFromImage err: %v", err)
	}
	if len(gen.lastContext) != 0 {
		t.Fatalf("expected empty context for the first chapter, got %d entries", len(gen.lastContext))
	}
}

func TestCreateChapterOversizedImageSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	svc, store, _ := newTestService(gen)

	_, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(11<<20), "", "")

	var validation *storyService.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be invoked for an oversized image, got %d calls", gen.calls)
	}
	if chapters := store.List("session-a"); len(chapters) != 0 {
		t.Fatalf("expected no stored chapters, got %d", len(chapters))
	}
}

func TestCreateChapterRejectsNonImagePayload(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newTestService(gen)

	img := generator.Image{Data: []byte("plain text"), MIMEType: "text/plain"}
	_, err := svc.CreateChapterFromImage(context.Background(), "session-a", img, "", "")

	var validation *storyService.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be invoked for a non-image payload")
	}
}

func TestCreateChapterUnknownStyle(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newTestService(gen)

	_, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(8), "", "baroque")

	var validation *storyService.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error for unknown style, got %v", err)
	}
}

func TestCreateChapterGeneratorFailureStoresNothing(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded")}
	svc, store, _ := newTestService(gen)

	_, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(8), "", "")
	if !errors.Is(err, storyService.ErrGenerate) {
		t.Fatalf("expected ErrGenerate, got %v", err)
	}
	if chapters := store.List("session-a"); len(chapters) != 0 {
		t.Fatalf("expected no partial chapter, got %d", len(chapters))
	}
}

func TestCreateChapterGeneratorUnavailable(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.CreateChapterFromImage(context.Background(), "session-a", pngImage(8), "", "")
	if !errors.Is(err, storyService.ErrGeneratorUnavailable) {
		t.Fatalf("expected ErrGeneratorUnavailable, got %v", err)
	}
}

func TestResetStoryRestartsNumbering(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Narrative: "n"}}
	svc, _, hub := newTestService(gen)
	ctx := context.Background()

	if _, err := svc.CreateChapterFromImage(ctx, "session-a", pngImage(8), "", ""); err != nil {
		t.Fatalf("CreateChapterFromImage err: %v", err)
	}

	eventCh, cancel := hub.Subscribe("session-a")
	defer cancel()

	svc.ResetStory(ctx, "session-a")
	if chapters := svc.ListChapters(ctx, "session-a"); len(chapters) != 0 {
		t.Fatalf("expected empty story after reset, got %d chapters", len(chapters))
	}
	if event := <-eventCh; event.Type != events.TypeReset {
		t.Fatalf("expected reset event, got %+v", event)
	}

	chapter, err := svc.CreateChapterFromImage(ctx, "session-a", pngImage(8), "", "")
	if err != nil {
		t.Fatalf("CreateChapterFromImage err: %v", err)
	}
	if chapter.ChapterNumber != 1 {
		t.Fatalf("expected numbering restart at 1, got %d", chapter.ChapterNumber)
	}
}

func TestExportStory(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Narrative: "n", Tags: []string{"t"}, Connections: []string{}}}
	svc, _, _ := newTestService(gen)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateChapterFromImage(ctx, "session-a", pngImage(8), "", ""); err != nil {
			t.Fatalf("CreateChapterFromImage err: %v", err)
		}
	}

	export := svc.ExportStory(ctx, "session-a")
	if export.Title != "Visual Story - 2 Chapters" {
		t.Fatalf("unexpected title %q", export.Title)
	}
	if len(export.Chapters) != 2 {
		t.Fatalf("expected 2 exported chapters, got %d", len(export.Chapters))
	}
	if export.Chapters[0].ChapterNumber != 1 || export.Chapters[1].ChapterNumber != 2 {
		t.Fatalf("expected ascending chapter numbers, got %+v", export.Chapters)
	}
}

func TestCreateChapterFromURLInlineBase64(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Narrative: "n"}}
	svc, _, _ := newTestService(gen)

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0, 'I', 'H', 'D', 'R'}
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	chapter, err := svc.CreateChapterFromURL(context.Background(), "session-a", "https://example.com/pic.png", encoded, "")
	if err != nil {
		t.Fatalf("CreateChapterFromURL err: %v", err)
	}
	if chapter.ImageURL != "https://example.com/pic.png" {
		t.Fatalf("expected caller URL as stored reference, got %q", chapter.ImageURL)
	}
}

func TestCreateChapterFromURLInvalidBase64(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newTestService(gen)

	_, err := svc.CreateChapterFromURL(context.Background(), "session-a", "https://example.com/pic.png", "%%%not-base64%%%", "")

	var validation *storyService.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateChapterFromURLFetchesImage(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0, 'I', 'H', 'D', 'R'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer server.Close()

	gen := &fakeGenerator{result: generator.Result{Narrative: "n"}}
	svc, _, _ := newTestService(gen)

	chapter, err := svc.CreateChapterFromURL(context.Background(), "session-a", server.URL, "", "")
	if err != nil {
		t.Fatalf("CreateChapterFromURL err: %v", err)
	}
	if chapter.ImageURL != server.URL {
		t.Fatalf("expected source URL as stored reference, got %q", chapter.ImageURL)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
}

func TestCreateChapterFromURLFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	gen := &fakeGenerator{}
	svc, store, _ := newTestService(gen)

	_, err := svc.CreateChapterFromURL(context.Background(), "session-a", server.URL, "", "")
	if err == nil {
		t.Fatal("expected fetch failure")
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run when the image cannot be fetched")
	}
	if chapters := store.List("session-a"); len(chapters) != 0 {
		t.Fatalf("expected no stored chapters, got %d", len(chapters))
	}
}
