package events

import (
	"log"
	"sync"

	"github.com/zhouzirui/visionthread/backend/internal/model/story"
)

// Type 标识推送给客户端的事件种类。
type Type string

const (
	// TypeChapter 表示新章节已生成。
	TypeChapter Type = "chapter"
	// TypeReset 表示整个故事被清空。
	TypeReset Type = "reset"
)

// Event 是推送给时间线订阅者的载荷。
type Event struct {
	Type      Type           `json:"event"`
	SessionID string         `json:"sessionId"`
	Chapter   *story.Chapter `json:"chapter,omitempty"`
}

// Hub 按会话分发章节事件，供 SSE 与 WebSocket 推送使用。慢速订阅者不会阻塞
// 发布方：缓冲已满时该事件对其直接丢弃。
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewHub 创建事件分发器。
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe 订阅某个会话的事件流，返回只读通道与取消函数。取消后通道关闭。
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[sessionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
	}
	return ch, cancel
}

// Publish 向会话的所有订阅者广播事件。
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			log.Printf("[events] dropping %s event for slow subscriber on session %s", event.Type, event.SessionID)
		}
	}
}
