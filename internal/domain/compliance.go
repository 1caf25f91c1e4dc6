package domain

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceRecord is a regulator-style approval permitting a specific
// identity to receive shares of a specific asset. Absence of a record means
// not approved.
type ComplianceRecord struct {
	AssetID     uint64
	User        uuid.UUID
	IsApproved  bool
	LastUpdated time.Time
	ApprovedBy  uuid.UUID
}
