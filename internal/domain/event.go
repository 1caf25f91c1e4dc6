package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags an audit event with the operation that produced it.
type EventType string

const (
	EventAssetCreated     EventType = "ASSET_CREATED"
	EventTransfer         EventType = "TRANSFER"
	EventComplianceUpdate EventType = "COMPLIANCE_UPDATE"
)

// Valid reports whether t is one of the closed set of event types.
func (t EventType) Valid() bool {
	switch t {
	case EventAssetCreated, EventTransfer, EventComplianceUpdate:
		return true
	}
	return false
}

// Event is an immutable audit record of a state-changing operation.
// Event ids are assigned as a strictly increasing sequence starting at 1.
// Owner is the single identity the event references: the creator for
// ASSET_CREATED, the sender for TRANSFER, the affected user for
// COMPLIANCE_UPDATE.
type Event struct {
	ID        uint64
	Type      EventType
	AssetID   uint64
	Owner     uuid.UUID
	Timestamp time.Time
}
