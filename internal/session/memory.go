package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore хранит сессии в памяти процесса
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[int64]Session
}

// NewMemoryStore создает хранилище в памяти. ttl <= 0 отключает устаревание.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[int64]Session),
	}
}

// Get возвращает копию сессии
func (m *MemoryStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.data[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s) {
		delete(m.data, chatID)
		return nil, ErrNotFound
	}
	return &s, nil
}

// Save сохраняет копию сессии и обновляет UpdatedAt
func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = m.now()
	m.data[s.ChatID] = *s
	m.prune()
	return nil
}

// Delete удаляет сессию чата
func (m *MemoryStore) Delete(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, chatID)
	return nil
}

// Len возвращает число хранимых сессий, включая устаревшие
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MemoryStore) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

func (m *MemoryStore) prune() {
	for id, s := range m.data {
		if m.expired(s) {
			delete(m.data, id)
		}
	}
}
