package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// CheckoutRepository интерфейс репозитория для работы с чекаутами
type CheckoutRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Checkout, error)
	GetActiveByUserID(ctx context.Context, userID string) (domain.Checkout, error)
	Create(ctx context.Context, checkout domain.Checkout) (domain.Checkout, error)
	Update(ctx context.Context, checkout domain.Checkout) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InMemoryCheckoutRepository реализация репозитория чекаутов в памяти
type InMemoryCheckoutRepository struct {
	checkouts map[uuid.UUID]domain.Checkout
	mutex     sync.RWMutex
	log       *logger.Logger
}

// NewInMemoryCheckoutRepository создает новый репозиторий чекаутов в памяти
func NewInMemoryCheckoutRepository(log *logger.Logger) *InMemoryCheckoutRepository {
	return &InMemoryCheckoutRepository{
		checkouts: make(map[uuid.UUID]domain.Checkout),
		log:       log,
	}
}

// GetByID возвращает чекаут по ID
func (r *InMemoryCheckoutRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Checkout, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	checkout, exists := r.checkouts[id]
	if !exists {
		return domain.Checkout{}, ErrNotFound
	}

	return checkout, nil
}

// GetActiveByUserID возвращает незавершенный чекаут пользователя.
// По задумке у пользователя не больше одного активного чекаута;
// при нескольких возвращается самый свежий.
func (r *InMemoryCheckoutRepository) GetActiveByUserID(ctx context.Context, userID string) (domain.Checkout, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var found bool
	var latest domain.Checkout
	for _, checkout := range r.checkouts {
		if checkout.UserID != userID || checkout.Completed {
			continue
		}
		if !found || checkout.UpdatedAt.After(latest.UpdatedAt) {
			latest = checkout
			found = true
		}
	}

	if !found {
		return domain.Checkout{}, ErrNotFound
	}

	return latest, nil
}

// Create создает новый чекаут
func (r *InMemoryCheckoutRepository) Create(ctx context.Context, checkout domain.Checkout) (domain.Checkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	checkout.CreatedAt = time.Now()
	checkout.UpdatedAt = checkout.CreatedAt
	r.checkouts[checkout.ID] = checkout

	return checkout, nil
}

// Update обновляет существующий чекаут
func (r *InMemoryCheckoutRepository) Update(ctx context.Context, checkout domain.Checkout) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.checkouts[checkout.ID]; !exists {
		return ErrNotFound
	}

	checkout.UpdatedAt = time.Now()
	r.checkouts[checkout.ID] = checkout

	return nil
}

// Delete удаляет чекаут
func (r *InMemoryCheckoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.checkouts[id]; !exists {
		return ErrNotFound
	}

	delete(r.checkouts, id)
	return nil
}
