package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/repository"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// CheckoutRepository реализация репозитория чекаутов на PostgreSQL.
// Хранение переживает рестарт сервиса, что важно для чекаутов,
// зависших посреди редиректа на оплату.
type CheckoutRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewCheckoutRepository создает новый репозиторий чекаутов на PostgreSQL
func NewCheckoutRepository(pool *pgxpool.Pool, log *logger.Logger) *CheckoutRepository {
	return &CheckoutRepository{
		pool: pool,
		log:  log,
	}
}

const checkoutColumns = `id, user_id, flow, step, party_id, order_id, amount,
	in_flight, completed,
	draft_product_id, draft_product_name, draft_price, draft_start_date,
	draft_end_date, draft_months, draft_max_members,
	created_at, updated_at`

// GetByID возвращает чекаут по ID
func (r *CheckoutRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Checkout, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkouts WHERE id = $1`, checkoutColumns)

	row := r.pool.QueryRow(ctx, query, id)
	checkout, err := scanCheckout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Checkout{}, repository.ErrNotFound
		}
		r.log.Error("Failed to query checkout: %v", err)
		return domain.Checkout{}, fmt.Errorf("failed to query checkout: %w", err)
	}

	return checkout, nil
}

// GetActiveByUserID возвращает самый свежий незавершенный чекаут пользователя
func (r *CheckoutRepository) GetActiveByUserID(ctx context.Context, userID string) (domain.Checkout, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkouts
		WHERE user_id = $1 AND NOT completed
		ORDER BY updated_at DESC
		LIMIT 1`, checkoutColumns)

	row := r.pool.QueryRow(ctx, query, userID)
	checkout, err := scanCheckout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Checkout{}, repository.ErrNotFound
		}
		r.log.Error("Failed to query active checkout: %v", err)
		return domain.Checkout{}, fmt.Errorf("failed to query active checkout: %w", err)
	}

	return checkout, nil
}

// Create создает новый чекаут
func (r *CheckoutRepository) Create(ctx context.Context, checkout domain.Checkout) (domain.Checkout, error) {
	query := `INSERT INTO checkouts (
		id, user_id, flow, step, party_id, order_id, amount,
		in_flight, completed,
		draft_product_id, draft_product_name, draft_price, draft_start_date,
		draft_end_date, draft_months, draft_max_members,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
	RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		checkout.ID, checkout.UserID, string(checkout.Flow), int(checkout.Step),
		checkout.PartyID, checkout.OrderID, checkout.Amount,
		checkout.InFlight, checkout.Completed,
		checkout.Draft.ProductID, checkout.Draft.ProductName, checkout.Draft.Price,
		checkout.Draft.StartDate, checkout.Draft.EndDate, checkout.Draft.Months,
		checkout.Draft.MaxMembers,
	).Scan(&checkout.CreatedAt, &checkout.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to insert checkout: %v", err)
		return domain.Checkout{}, fmt.Errorf("failed to insert checkout: %w", err)
	}

	return checkout, nil
}

// Update обновляет существующий чекаут
func (r *CheckoutRepository) Update(ctx context.Context, checkout domain.Checkout) error {
	query := `UPDATE checkouts SET
		flow = $2, step = $3, party_id = $4, order_id = $5, amount = $6,
		in_flight = $7, completed = $8,
		draft_product_id = $9, draft_product_name = $10, draft_price = $11,
		draft_start_date = $12, draft_end_date = $13, draft_months = $14,
		draft_max_members = $15,
		updated_at = now()
	WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		checkout.ID, string(checkout.Flow), int(checkout.Step),
		checkout.PartyID, checkout.OrderID, checkout.Amount,
		checkout.InFlight, checkout.Completed,
		checkout.Draft.ProductID, checkout.Draft.ProductName, checkout.Draft.Price,
		checkout.Draft.StartDate, checkout.Draft.EndDate, checkout.Draft.Months,
		checkout.Draft.MaxMembers,
	)
	if err != nil {
		r.log.Error("Failed to update checkout: %v", err)
		return fmt.Errorf("failed to update checkout: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete удаляет чекаут
func (r *CheckoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM checkouts WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete checkout: %v", err)
		return fmt.Errorf("failed to delete checkout: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// scanCheckout читает строку чекаута в доменную модель
func scanCheckout(row pgx.Row) (domain.Checkout, error) {
	var c domain.Checkout
	var flow string
	var step int

	err := row.Scan(
		&c.ID, &c.UserID, &flow, &step, &c.PartyID, &c.OrderID, &c.Amount,
		&c.InFlight, &c.Completed,
		&c.Draft.ProductID, &c.Draft.ProductName, &c.Draft.Price,
		&c.Draft.StartDate, &c.Draft.EndDate, &c.Draft.Months,
		&c.Draft.MaxMembers,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Checkout{}, err
	}

	c.Flow = domain.FlowKind(flow)
	c.Step = domain.CheckoutStep(step)
	return c, nil
}
