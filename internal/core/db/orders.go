package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

type orderRow struct {
	ID          string  `db:"id"`
	CustomerID  string  `db:"customer_id"`
	OrderAmount float64 `db:"order_amount"`
	OrderDate   string  `db:"order_date"`
	Items       string  `db:"items"`
	CreatedAt   string  `db:"created_at"`
}

func (r orderRow) toOrder() (*types.Order, error) {
	var items []types.OrderItem
	_ = json.Unmarshal([]byte(r.Items), &items)
	orderDate, err := parseTime(r.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", r.ID, err)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", r.ID, err)
	}
	return &types.Order{
		ID:          types.OrderID(r.ID),
		CustomerID:  types.CustomerID(r.CustomerID),
		OrderAmount: r.OrderAmount,
		OrderDate:   orderDate,
		Items:       items,
		CreatedAt:   createdAt,
	}, nil
}

// InsertOrder persists a new canonical order. Orders are immutable; there is
// no update path.
func (s *Store) InsertOrder(ctx context.Context, o *types.Order) error {
	if o.ID == "" {
		o.ID = types.NewOrderID()
	}
	o.CreatedAt = time.Now().UTC()

	items := encodeJSON(o.Items, "[]")
	if o.Items == nil {
		items = "[]"
	}

	_, err := s.q.Exec(ctx, "insert-order",
		string(o.ID), string(o.CustomerID), o.OrderAmount,
		fmtTime(o.OrderDate), items, fmtTime(o.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrderByID returns sql.ErrNoRows when the order does not exist.
func (s *Store) GetOrderByID(ctx context.Context, id types.OrderID) (*types.Order, error) {
	var row orderRow
	if err := s.q.Get(ctx, "get-order-by-id", &row, string(id)); err != nil {
		return nil, err
	}
	return row.toOrder()
}

// CountOrdersForCustomer reports how many orders reference a customer.
func (s *Store) CountOrdersForCustomer(ctx context.Context, id types.CustomerID) (int64, error) {
	var count int64
	if err := s.q.Get(ctx, "count-orders-for-customer", &count, string(id)); err != nil {
		return 0, fmt.Errorf("count orders for customer %s: %w", id, err)
	}
	return count, nil
}
