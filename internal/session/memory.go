package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/moa-platform/checkout-service/pkg/logger"
)

// InMemoryStore реализация хранилища сессий в памяти
type InMemoryStore struct {
	records map[string][]byte
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryStore создает новое хранилище сессий в памяти
func NewInMemoryStore(log *logger.Logger) *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]byte),
		log:     log,
	}
}

// Save сохраняет запись сессии
func (s *InMemoryStore) Save(ctx context.Context, userID, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[storageKey(userID, key)] = data
	return nil
}

// Load читает запись сессии
func (s *InMemoryStore) Load(ctx context.Context, userID, key string, out any) (bool, error) {
	s.mutex.RLock()
	data, exists := s.records[storageKey(userID, key)]
	s.mutex.RUnlock()

	if !exists {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		// Поврежденная запись равносильна отсутствующей
		s.log.Warn("Discarding corrupt session record for key %s: %v", key, err)
		return false, nil
	}

	return true, nil
}

// Clear удаляет запись сессии
func (s *InMemoryStore) Clear(ctx context.Context, userID, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.records, storageKey(userID, key))
	return nil
}
