package domain

import (
	"time"

	"github.com/google/uuid"
)

// Metadata URI length bounds. The URI is stored opaquely and never
// interpreted; only its length is constrained.
const (
	MinMetadataURILength = 6
	MaxMetadataURILength = 256
)

// Asset represents a registered tokenized real-world asset.
// Assets are created once, never deleted, and identified by a monotonically
// assigned positive integer.
type Asset struct {
	ID               uint64
	Owner            uuid.UUID // creator identity, informational only
	TotalSupply      uint64
	FractionalShares uint64
	MetadataURI      string
	IsTransferable   bool
	CreatedAt        time.Time
}

// ValidateMetadataURI checks the opaque metadata URI against its length
// bounds.
func ValidateMetadataURI(uri string) error {
	if len(uri) < MinMetadataURILength {
		return NewError(CodeInvalidInput, "metadata URI must be longer than %d characters", MinMetadataURILength-1)
	}
	if len(uri) > MaxMetadataURILength {
		return NewError(CodeInvalidInput, "metadata URI must not exceed %d characters", MaxMetadataURILength)
	}
	return nil
}

// Validate ensures the asset adheres to the creation rules.
func (a *Asset) Validate() error {
	if a.Owner == uuid.Nil {
		return NewError(CodeInvalidInput, "asset creator identity is required")
	}
	if a.TotalSupply == 0 {
		return NewError(CodeInvalidInput, "total supply must be positive")
	}
	if a.FractionalShares == 0 {
		return NewError(CodeInvalidInput, "fractional shares must be positive")
	}
	if a.FractionalShares > a.TotalSupply {
		return NewError(CodeInvalidInput, "fractional shares cannot exceed total supply")
	}
	return ValidateMetadataURI(a.MetadataURI)
}

// Balance is one row of the share ledger: how many shares of an asset an
// owner holds. A missing row reads as zero shares.
type Balance struct {
	AssetID uint64
	Owner   uuid.UUID
	Shares  uint64
}

// ControlToken is the single-holder binding marking the current controller
// of an asset. At most one holder exists per asset at any time.
type ControlToken struct {
	AssetID uint64
	Holder  uuid.UUID
}
