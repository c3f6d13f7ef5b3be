package events_test

import (
	"testing"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := events.NewHub()
	ch, cancel := hub.Subscribe("session-a")
	defer cancel()

	chapter := story.Chapter{ID: "c1", ChapterNumber: 1}
	hub.Publish(events.Event{Type: events.TypeChapter, SessionID: "session-a", Chapter: &chapter})

	event := <-ch
	if event.Type != events.TypeChapter {
		t.Fatalf("unexpected event type %q", event.Type)
	}
	if event.Chapter == nil || event.Chapter.ID != "c1" {
		t.Fatalf("unexpected chapter payload: %+v", event.Chapter)
	}
}

func TestHubIsolatesSessions(t *testing.T) {
	hub := events.NewHub()
	ch, cancel := hub.Subscribe("session-a")
	defer cancel()

	hub.Publish(events.Event{Type: events.TypeReset, SessionID: "session-b"})

	select {
	case event := <-ch:
		t.Fatalf("expected no event for other session, got %+v", event)
	default:
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := events.NewHub()
	ch, cancel := hub.Subscribe("session-a")

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}

	// Publishing after cancel must not panic or block.
	hub.Publish(events.Event{Type: events.TypeReset, SessionID: "session-a"})
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := events.NewHub()
	_, cancel := hub.Subscribe("session-a")
	defer cancel()

	// Nobody reads; publishing past the buffer must not block.
	for i := 0; i < 20; i++ {
		hub.Publish(events.Event{Type: events.TypeReset, SessionID: "session-a"})
	}
}
