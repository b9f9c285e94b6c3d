package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"omnipost/domain/model"

	"github.com/gin-gonic/gin"
)

const subscriberBuffer = 8

// Hub fans post events out to every open SSE stream.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan model.PostEvent]struct{}
}

func NewPostHub() *Hub {
	return &Hub{subs: make(map[chan model.PostEvent]struct{})}
}

// Serve streams post events until the client goes away.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = c.Writer.Write([]byte("event: " + string(evt.Type) + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) subscribe() chan model.PostEvent {
	ch := make(chan model.PostEvent, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan model.PostEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Subscribers reports how many streams are open.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishPostEvent never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) PublishPostEvent(ctx context.Context, event *model.PostEvent) error {
	if event == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- *event:
		default:
		}
	}
	return nil
}
