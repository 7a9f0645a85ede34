package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moa-platform/checkout-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// TTL записей восстанавливаемой сессии: незавершенный редирект
// старше суток считается заведомо брошенным.
const sessionTTL = 24 * time.Hour

// RedisStore реализация хранилища сессий на Redis
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisStore создает новое хранилище сессий на Redis
func NewRedisStore(addr, password string, db int, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return &RedisStore{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save сохраняет запись сессии
func (s *RedisStore) Save(ctx context.Context, userID, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	fullKey := storageKey(userID, key)
	if err := s.client.Set(ctx, fullKey, data, sessionTTL).Err(); err != nil {
		s.log.Errorw("Failed to save session record", "error", err, "key", fullKey)
		return fmt.Errorf("failed to save session record: %w", err)
	}

	s.log.Debugw("Session record saved", "key", fullKey)
	return nil
}

// Load читает запись сессии
func (s *RedisStore) Load(ctx context.Context, userID, key string, out any) (bool, error) {
	fullKey := storageKey(userID, key)

	data, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		s.log.Errorw("Failed to load session record", "error", err, "key", fullKey)
		return false, fmt.Errorf("failed to load session record: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		// Поврежденная запись равносильна отсутствующей
		s.log.Warnw("Discarding corrupt session record", "key", fullKey, "error", err)
		return false, nil
	}

	return true, nil
}

// Clear удаляет запись сессии
func (s *RedisStore) Clear(ctx context.Context, userID, key string) error {
	fullKey := storageKey(userID, key)

	if err := s.client.Del(ctx, fullKey).Err(); err != nil {
		s.log.Errorw("Failed to clear session record", "error", err, "key", fullKey)
		return fmt.Errorf("failed to clear session record: %w", err)
	}

	s.log.Debugw("Session record cleared", "key", fullKey)
	return nil
}
