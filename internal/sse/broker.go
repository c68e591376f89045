// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type changeReq struct {
	entity string
	kind   string
	id     string
}

type indexReq struct {
	kind string
	id   string
}

// DefaultHeartbeat is how often an idle stream receives a keep-alive comment.
const DefaultHeartbeat = 25 * time.Second

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set, the event sequence and
// the search throttle timestamp. Public methods talk to it over channels.
type Broker struct {
	searchMin time.Duration
	heartbeat atomic.Int64

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	indexCh       chan indexReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. searchThrottle bounds how often
// search.updated is broadcast while the index is busy.
func NewBroker(searchThrottle time.Duration) *Broker {
	if searchThrottle <= 0 {
		searchThrottle = 2 * time.Second
	}

	b := &Broker{
		searchMin:     searchThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		indexCh:       make(chan indexReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	b.heartbeat.Store(int64(DefaultHeartbeat))

	go b.run()
	return b
}

// SetHeartbeat changes the keep-alive interval for streams opened afterwards.
func (b *Broker) SetHeartbeat(d time.Duration) {
	if d > 0 {
		b.heartbeat.Store(int64(d))
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastSearch time.Time
		seq        uint64
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			broadcast(Event{Type: req.entity + "." + req.kind, Data: map[string]string{"id": req.id}})

		case req := <-b.indexCh:
			now := time.Now()
			if now.Sub(lastSearch) >= b.searchMin {
				lastSearch = now
				broadcast(Event{Type: "search.updated", Data: map[string]string{"kind": req.kind, "id": req.id}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange broadcasts an "<entity>.<kind>" event carrying the id, for
// example "note.updated".
func (b *Broker) PublishChange(entity, kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{entity: entity, kind: kind, id: id}:
	case <-b.stopped:
	}
}

// PublishIndexEvent reports a search index mutation as a throttled
// search.updated event.
func (b *Broker) PublishIndexEvent(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.indexCh <- indexReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// PublishTyping broadcasts a chat.typing event.
func (b *Broker) PublishTyping(chatID, roleID string, typing bool) {
	b.Publish(Event{Type: "chat.typing", Data: typingData{ChatID: chatID, RoleID: roleID, Typing: typing}})
}

type typingData struct {
	ChatID string `json:"chat_id"`
	RoleID string `json:"role_id"`
	Typing bool   `json:"typing"`
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(time.Duration(b.heartbeat.Load()))
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
