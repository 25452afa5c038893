package domain

import "time"

// ProductAction names the mutation recorded in the audit trail.
type ProductAction string

const (
	ActionCreated ProductAction = "created"
	ActionUpdated ProductAction = "updated"
	ActionDeleted ProductAction = "deleted"
)

// ProductEvent records a single product mutation.
type ProductEvent struct {
	ProductID  string
	Action     ProductAction
	Actor      string // operator email; empty when unauthenticated
	OccurredAt time.Time
}
