package ledger

import (
	"context"

	"github.com/fracledger/fracledger-backend/internal/domain"
)

// Commit captures the complete effect of one ledger operation: exactly one
// audit event plus every row the operation touches. A commit is staged in
// full before anything is written, handed to the recorder, and only then
// applied to the in-memory store.
type Commit struct {
	Event      domain.Event
	Asset      *domain.Asset
	Balances   []domain.Balance
	Compliance *domain.ComplianceRecord
	Control    *domain.ControlToken
}

// Recorder durably persists a commit before it becomes visible. An error
// aborts the enclosing operation with EVENT_LOGGING_FAILED and no state
// change: an operation is never considered final without its audit event.
type Recorder interface {
	Record(ctx context.Context, c Commit) error
}

// NopRecorder is the default recorder for deployments without a durable
// mirror.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Commit) error { return nil }
