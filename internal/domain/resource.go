package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a newly created quota-counted row (account, recurring service
// or credit), reduced to the fields the API returns.
type Resource struct {
	ID          uuid.UUID    `json:"id"`
	Kind        ResourceKind `json:"kind"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Name        string       `json:"name"`
	AmountCents int64        `json:"amount_cents,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CreateResourceParams contains parameters for a quota-guarded create.
// OwnerID is the account whose quota is charged; ActorID is the caller.
type CreateResourceParams struct {
	Kind        ResourceKind
	OwnerID     uuid.UUID
	ActorID     uuid.UUID
	Name        string
	AmountCents int64
	Currency    string
}

// DefaultCurrency is used for accounts created without one.
const DefaultCurrency = "MXN"
