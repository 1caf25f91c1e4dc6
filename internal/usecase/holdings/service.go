package holdings

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fracledger/fracledger-backend/internal/domain"
)

// Ledger is the read surface of the ledger engine this service derives
// positions from.
type Ledger interface {
	Asset(id uint64) (domain.Asset, bool)
	OwnerShares(assetID uint64, owner uuid.UUID) uint64
	Holdings(assetID uint64) []domain.Balance
	ControlHolder(assetID uint64) (uuid.UUID, bool)
}

// Position is one owner's stake in an asset.
type Position struct {
	Owner        uuid.UUID
	Shares       uint64
	Fraction     decimal.Decimal // shares / total supply
	IsController bool
}

// AssetHoldings is the full ownership breakdown of an asset.
type AssetHoldings struct {
	AssetID     uint64
	TotalSupply uint64
	Positions   []Position
}

// Service computes ownership breakdowns and exact fractional positions from
// ledger state.
type Service struct {
	Ledger Ledger
}

// NewService creates a new holdings Service instance.
func NewService(ledger Ledger) *Service {
	return &Service{Ledger: ledger}
}

// ForAsset returns every non-zero position of an asset, largest first.
func (s *Service) ForAsset(assetID uint64) (*AssetHoldings, error) {
	asset, ok := s.Ledger.Asset(assetID)
	if !ok {
		return nil, domain.NewError(domain.CodeInvalidAsset, "asset %d does not exist", assetID)
	}

	holder, hasHolder := s.Ledger.ControlHolder(assetID)
	balances := s.Ledger.Holdings(assetID)
	positions := make([]Position, 0, len(balances))
	for _, b := range balances {
		positions = append(positions, Position{
			Owner:        b.Owner,
			Shares:       b.Shares,
			Fraction:     fraction(b.Shares, asset.TotalSupply),
			IsController: hasHolder && b.Owner == holder,
		})
	}

	return &AssetHoldings{
		AssetID:     assetID,
		TotalSupply: asset.TotalSupply,
		Positions:   positions,
	}, nil
}

// ForOwner returns a single owner's position in an asset. Owners without
// shares get a zero position, mirroring the ledger's default-zero reads.
func (s *Service) ForOwner(assetID uint64, owner uuid.UUID) (*Position, error) {
	asset, ok := s.Ledger.Asset(assetID)
	if !ok {
		return nil, domain.NewError(domain.CodeInvalidAsset, "asset %d does not exist", assetID)
	}

	shares := s.Ledger.OwnerShares(assetID, owner)
	holder, hasHolder := s.Ledger.ControlHolder(assetID)
	return &Position{
		Owner:        owner,
		Shares:       shares,
		Fraction:     fraction(shares, asset.TotalSupply),
		IsController: hasHolder && owner == holder,
	}, nil
}

// fraction divides shares by supply exactly, without passing through floats.
func fraction(shares, supply uint64) decimal.Decimal {
	if supply == 0 {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(shares), 0)
	den := decimal.NewFromBigInt(new(big.Int).SetUint64(supply), 0)
	return num.Div(den)
}
