package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/example/order-service/internal/models"
	"github.com/example/order-service/internal/service"
)

// uniqueViolation is the Postgres error code for a unique-constraint failure.
const uniqueViolation = "23505"

const orderColumns = `id, external_id, status, items, total_amount, created_at, updated_at, correlation_id, version`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

var _ service.OrderStore = (*OrderRepository)(nil)

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_id = $1`, externalID)
}

// FindByStatus returns one page of orders in the given status, most recently
// updated first, plus the total match count. page is 1-based.
func (r *OrderRepository) FindByStatus(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1`, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		string(status), size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0, size)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}

// Save is a conditional update of an existing order: the stored version must
// equal order.Version. On success the incremented version is written back into
// the struct; on a mismatch the error distinguishes a missing row from a
// concurrent update.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET external_id = $1, status = $2, items = $3, total_amount = $4,
		    updated_at = $5, correlation_id = $6, version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version`,
		order.ExternalID, string(order.Status), items, order.TotalAmount,
		order.UpdatedAt, order.CorrelationID, order.ID, order.Version,
	).Scan(&order.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update order: %w", err)
	}

	current, err := r.FindByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("save order %s: %w", order.ID, service.ErrOrderNotFound)
	}
	return &service.VersionConflictError{OrderID: order.ID, Expected: order.Version, Actual: current.Version}
}

// UpsertByExternalID implements insert-or-full-replace keyed by external id.
// An existing row keeps its id and version so the conditional write in Save
// succeeds; everything else comes from the new order. Two concurrent first
// inserts for the same key race read-then-write: the loser hits the unique
// index and gets ErrDuplicateExternalID.
func (r *OrderRepository) UpsertByExternalID(ctx context.Context, order *models.Order) error {
	existing, err := r.FindByExternalID(ctx, order.ExternalID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.insert(ctx, order)
	}
	order.ID = existing.ID
	order.Version = existing.Version
	return r.Save(ctx, order)
}

func (r *OrderRepository) insert(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, external_id, status, items, total_amount, created_at, updated_at, correlation_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)`,
		order.ID, order.ExternalID, string(order.Status), items, order.TotalAmount,
		order.CreatedAt, order.UpdatedAt, order.CorrelationID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert order %s: %w", order.ExternalID, service.ErrDuplicateExternalID)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.Version = 1
	return nil
}

func (r *OrderRepository) findOne(ctx context.Context, query, arg string) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		order         models.Order
		status        string
		items         []byte
		correlationID sql.NullString
	)
	err := row.Scan(&order.ID, &order.ExternalID, &status, &items, &order.TotalAmount,
		&order.CreatedAt, &order.UpdatedAt, &correlationID, &order.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	order.Status = models.OrderStatus(status)
	order.CorrelationID = correlationID.String
	return &order, nil
}
