// Package audittest provides an in-memory audit sink for tests.
package audittest

import (
	"context"
	"sync"

	"adminctl/internal/audit"
)

// Memory keeps every record so a test can inspect what was audited. It is
// both a Sink and a History.
type Memory struct {
	mu      sync.Mutex
	Records []audit.Record
}

func (m *Memory) Append(_ context.Context, r audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, r)
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]audit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]audit.Record, 0, limit)
	for i := len(m.Records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.Records[i])
	}
	return result, nil
}

// Messages returns the audited messages in order.
func (m *Memory) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []string
	for _, next := range m.Records {
		result = append(result, next.Message)
	}
	return result
}
