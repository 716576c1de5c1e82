package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

// customerRow is the scan target for the customers table. JSON columns and
// RFC3339 text dates are decoded into the domain type by toCustomer.
type customerRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Email            string         `db:"email"`
	Phone            string         `db:"phone"`
	TotalSpends      float64        `db:"total_spends"`
	VisitCount       int64          `db:"visit_count"`
	LastSeenDate     sql.NullString `db:"last_seen_date"`
	Tags             string         `db:"tags"`
	CustomAttributes string         `db:"custom_attributes"`
	CreatedAt        string         `db:"created_at"`
	UpdatedAt        string         `db:"updated_at"`
}

func (r customerRow) toCustomer() (*types.Customer, error) {
	lastSeen, err := parseTimePtr(r.LastSeenDate)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", r.ID, err)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", r.ID, err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", r.ID, err)
	}
	return &types.Customer{
		ID:               types.CustomerID(r.ID),
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		TotalSpends:      r.TotalSpends,
		VisitCount:       r.VisitCount,
		LastSeenDate:     lastSeen,
		Tags:             decodeTags(r.Tags),
		CustomAttributes: decodeAttrs(r.CustomAttributes),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

// InsertCustomer persists a new canonical customer. Assigns the ID and
// timestamps; the email must already be lowercased by validation.
func (s *Store) InsertCustomer(ctx context.Context, c *types.Customer) error {
	if c.ID == "" {
		c.ID = types.NewCustomerID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.q.Exec(ctx, "insert-customer",
		string(c.ID), c.Name, c.Email, c.Phone, c.TotalSpends, c.VisitCount,
		fmtTimePtr(c.LastSeenDate), encodeTags(c.Tags), encodeAttrs(c.CustomAttributes),
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// UpdateCustomer persists mutated fields of an existing customer and
// refreshes updatedAt. Email is immutable (identity key).
func (s *Store) UpdateCustomer(ctx context.Context, c *types.Customer) error {
	c.UpdatedAt = time.Now().UTC()

	_, err := s.q.Exec(ctx, "update-customer",
		c.Name, c.Phone, c.TotalSpends, c.VisitCount,
		fmtTimePtr(c.LastSeenDate), encodeTags(c.Tags), encodeAttrs(c.CustomAttributes),
		fmtTime(c.UpdatedAt), string(c.ID),
	)
	if err != nil {
		return fmt.Errorf("update customer %s: %w", c.ID, err)
	}
	return nil
}

// GetCustomerByEmail looks up a customer by its identity key. The caller is
// expected to lowercase the email; returns sql.ErrNoRows when absent.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*types.Customer, error) {
	var row customerRow
	if err := s.q.Get(ctx, "get-customer-by-email", &row, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return row.toCustomer()
}

// GetCustomerByID returns sql.ErrNoRows when the customer does not exist.
func (s *Store) GetCustomerByID(ctx context.Context, id types.CustomerID) (*types.Customer, error) {
	var row customerRow
	if err := s.q.Get(ctx, "get-customer-by-id", &row, string(id)); err != nil {
		return nil, err
	}
	return row.toCustomer()
}

// CountCustomers counts the full canonical population.
func (s *Store) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.q.Get(ctx, "count-customers", &count); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

// CountCustomersWhere counts customers matching a compiled predicate
// fragment. The fragment uses ? placeholders and is rebound per driver;
// values arrive as args, never interpolated.
func (s *Store) CountCustomersWhere(ctx context.Context, where string, args ...any) (int64, error) {
	query := "SELECT COUNT(*) FROM customers WHERE " + where
	var count int64
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count customers where: %w", err)
	}
	return count, nil
}
