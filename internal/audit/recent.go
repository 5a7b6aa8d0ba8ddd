package audit

import (
	"container/list"
	"context"
	"sync"
)

// recentHistory keeps the last capacity records of this process. Older
// records are evicted; the file sink still has them.
type recentHistory struct {
	mu       sync.Mutex
	data     *list.List
	capacity int
}

func NewRecentHistory(capacity int) History {
	return &recentHistory{capacity: capacity, data: list.New()}
}

func (h *recentHistory) Append(_ context.Context, r Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.capacity > 0 && h.data.Len() == h.capacity {
		h.data.Remove(h.data.Front())
	}
	h.data.PushBack(r)
	return nil
}

// Recent walks from the back, newest first.
func (h *recentHistory) Recent(_ context.Context, limit int) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	values := make([]Record, 0, min(limit, h.data.Len()))
	for elem := h.data.Back(); elem != nil && len(values) < limit; elem = elem.Prev() {
		values = append(values, elem.Value.(Record))
	}
	return values, nil
}
