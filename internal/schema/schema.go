// Package schema holds the structural contracts for canonical entities.
//
// Validators here are standalone values shared between the intake layer
// (shallow shape checks) and the reconciliation workers (full structural
// validation), decoupled from the persistence objects. Intake calls
// CheckCustomerShape/CheckOrderShape only; the workers call
// ValidateCustomer/ValidateOrder, which coerce and default fields the way
// the canonical store expects them.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

// emailPattern matches the canonical store's email contract.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// fieldError wraps types.ErrValidation with the offending field and reason.
func fieldError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", types.ErrValidation, field, reason)
}

// ValidateCustomer validates a raw payload against the Customer contract and
// returns the coerced canonical fields. Defaults are applied (totalSpends 0,
// visitCount 0); ID and timestamps are left for the store to assign.
func ValidateCustomer(payload json.RawMessage) (*types.Customer, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	c := &types.Customer{}

	name, ok, err := stringField(obj, "name")
	if err != nil {
		return nil, err
	}
	if !ok || name == "" {
		return nil, fieldError("name", "customer name is required")
	}
	c.Name = name

	email, ok, err := stringField(obj, "email")
	if err != nil {
		return nil, err
	}
	if !ok || email == "" {
		return nil, fieldError("email", "email is required")
	}
	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		return nil, fieldError("email", "invalid email address")
	}
	c.Email = email

	if phone, ok, err := stringField(obj, "phone"); err != nil {
		return nil, err
	} else if ok {
		c.Phone = phone
	}

	if v, ok := obj["totalSpends"]; ok && v != nil {
		n, err := coerceNumber(v)
		if err != nil {
			return nil, fieldError("totalSpends", "must be a number")
		}
		c.TotalSpends = n
	}

	if v, ok := obj["visitCount"]; ok && v != nil {
		n, err := coerceNumber(v)
		if err != nil {
			return nil, fieldError("visitCount", "must be a number")
		}
		c.VisitCount = int64(n)
	}

	if v, ok := obj["lastSeenDate"]; ok && v != nil {
		t, err := coerceTime(v)
		if err != nil {
			return nil, fieldError("lastSeenDate", "must be an RFC3339 timestamp")
		}
		c.LastSeenDate = &t
	}

	if v, ok := obj["tags"]; ok && v != nil {
		tags, err := coerceStringSlice(v)
		if err != nil {
			return nil, fieldError("tags", "must be an array of strings")
		}
		c.Tags = tags
	}

	if v, ok := obj["customAttributes"]; ok && v != nil {
		attrs, ok := v.(map[string]any)
		if !ok {
			return nil, fieldError("customAttributes", "must be an object")
		}
		c.CustomAttributes = attrs
	}

	return c, nil
}

// ValidateOrder validates a raw payload against the Order contract.
// customerId must be a well-formed ID; whether it references an existing
// Customer is a referential check the order worker performs separately.
func ValidateOrder(payload json.RawMessage, now time.Time) (*types.Order, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	o := &types.Order{}

	rawID, ok, err := stringField(obj, "customerId")
	if err != nil {
		return nil, err
	}
	if !ok || rawID == "" {
		return nil, fieldError("customerId", "customerId is required")
	}
	customerID, err := types.ParseCustomerID(rawID)
	if err != nil {
		return nil, fieldError("customerId", "malformed customer id")
	}
	o.CustomerID = customerID

	v, ok := obj["orderAmount"]
	if !ok || v == nil {
		return nil, fieldError("orderAmount", "order amount is required")
	}
	amount, err := coerceNumber(v)
	if err != nil {
		return nil, fieldError("orderAmount", "must be a number")
	}
	o.OrderAmount = amount

	o.OrderDate = now
	if v, ok := obj["orderDate"]; ok && v != nil {
		t, err := coerceTime(v)
		if err != nil {
			return nil, fieldError("orderDate", "must be an RFC3339 timestamp")
		}
		o.OrderDate = t
	}

	if v, ok := obj["items"]; ok && v != nil {
		items, err := coerceItems(v)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}

	return o, nil
}

// CheckCustomerShape performs the intake-level shape check: payload must be a
// JSON object carrying usable email and name values. Full contract validation
// is deferred to the worker so the intake path needs no store lookups.
func CheckCustomerShape(payload json.RawMessage) error {
	obj, err := decodeObject(payload)
	if err != nil {
		return fmt.Errorf("%w: customer data payload must be an object", types.ErrInvalidInput)
	}
	if !truthy(obj["email"]) || !truthy(obj["name"]) {
		return fmt.Errorf("%w: email and name are required", types.ErrInvalidInput)
	}
	return nil
}

// CheckOrderShape performs the intake-level shape check for orders.
func CheckOrderShape(payload json.RawMessage) error {
	obj, err := decodeObject(payload)
	if err != nil {
		return fmt.Errorf("%w: order data payload must be an object", types.ErrInvalidInput)
	}
	if !truthy(obj["customerId"]) || !truthy(obj["orderAmount"]) {
		return fmt.Errorf("%w: customerId and orderAmount are required", types.ErrInvalidInput)
	}
	return nil
}

// decodeObject parses payload into a generic object.
func decodeObject(payload json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: payload must be a JSON object", types.ErrValidation)
	}
	return obj, nil
}

// stringField extracts a trimmed string field. Non-string values are a
// contract violation rather than silently stringified.
func stringField(obj map[string]any, key string) (string, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fieldError(key, "must be a string")
	}
	return strings.TrimSpace(s), true, nil
}

// coerceNumber accepts JSON numbers and numeric strings, mirroring the loose
// casting event producers rely on.
func coerceNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		n = strings.TrimSpace(n)
		if n == "" {
			return 0, types.ErrValidation
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, types.ErrValidation
		}
		return f, nil
	default:
		return 0, types.ErrValidation
	}
}

// coerceTime accepts RFC3339 timestamps and bare dates.
func coerceTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, types.ErrValidation
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, types.ErrValidation
}

func coerceStringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, types.ErrValidation
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, types.ErrValidation
		}
		out = append(out, s)
	}
	return out, nil
}

func coerceItems(v any) ([]types.OrderItem, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fieldError("items", "must be an array")
	}
	items := make([]types.OrderItem, 0, len(arr))
	for i, raw := range arr {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fieldError("items", fmt.Sprintf("item %d must be an object", i))
		}
		var item types.OrderItem
		if s, ok := obj["productId"].(string); ok {
			item.ProductID = s
		}
		if s, ok := obj["productName"].(string); ok {
			item.ProductName = s
		}
		if n, ok := obj["quantity"]; ok && n != nil {
			q, err := coerceNumber(n)
			if err != nil {
				return nil, fieldError("items", fmt.Sprintf("item %d quantity must be a number", i))
			}
			item.Quantity = int64(q)
		}
		if n, ok := obj["price"]; ok && n != nil {
			p, err := coerceNumber(n)
			if err != nil {
				return nil, fieldError("items", fmt.Sprintf("item %d price must be a number", i))
			}
			item.Price = p
		}
		items = append(items, item)
	}
	return items, nil
}

// truthy mirrors the permissive presence check the intake layer applies:
// nil, empty/whitespace strings, zero numbers, and false all fail the check.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}
