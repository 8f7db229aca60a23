package service

import "sync"

// ProgressEvent is the coarse-grained crawl progress surfaced to the
// presentation layer: page N of budget, and the URL just collected.
type ProgressEvent struct {
	HotelID      string `json:"hotel_id"`
	PagesFetched int    `json:"pages_fetched"`
	Budget       int    `json:"budget"`
	URL          string `json:"url"`
	Done         bool   `json:"done"`
}

// ProgressHub fans crawl progress out to any number of subscribers per
// hotel. Slow subscribers miss events instead of stalling the crawl.
type ProgressHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan ProgressEvent]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string]map[chan ProgressEvent]struct{}),
	}
}

func (h *ProgressHub) Subscribe(hotelID string) chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[hotelID] == nil {
		h.subscribers[hotelID] = make(map[chan ProgressEvent]struct{})
	}
	h.subscribers[hotelID][ch] = struct{}{}

	return ch
}

func (h *ProgressHub) Unsubscribe(hotelID string, ch chan ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[hotelID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.subscribers, hotelID)
		}
	}
}

func (h *ProgressHub) Publish(event ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.HotelID] {
		select {
		case ch <- event:
		default:
		}
	}
}
