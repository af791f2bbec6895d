package loyalty

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrInsufficientCredit = errors.New("insufficient credit balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// Entry kinds
const (
	KindEarn   = "earn"
	KindRedeem = "redeem"
	KindAdjust = "adjust"
)

// Entry is one append-only row in a customer's credit ledger. Amount is
// signed cents: positive for earn, negative for redeem, either for adjust.
type Entry struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	CustomerID string    `json:"customer_id"`
	Kind       string    `json:"kind"`
	Amount     int64     `json:"amount"`
	Reference  string    `json:"reference,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository defines ledger persistence. Entries are append-only; balance
// is always derived from the sum of entries, never stored.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	Balance(ctx context.Context, tenantID, customerID string) (int64, error)
	History(ctx context.Context, tenantID, customerID string, limit, offset int) ([]*Entry, error)
}
