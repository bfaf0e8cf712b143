// Package config holds the typed tables the verifier reads: fees, price
// tiers, throttle intervals, expiration windows, script identities and the
// platform wallet. Values come from CUE files compiled by internal/compiler;
// Default returns a complete table set for tests and local runs.
package config

import (
	"github.com/roach88/accountcell/internal/ir"
)

// Ledger units.
const (
	OneCKB    uint64 = 100_000_000
	OneUSD    uint64 = 1_000_000
	DaySec    uint64 = 86_400
	YearSec   uint64 = 365 * DaySec
	MonthSec  uint64 = 30 * DaySec
	CellBasic uint64 = 61 * OneCKB

	// AccountMaxPricedLength caps the length used to pick a price tier.
	AccountMaxPricedLength = 8

	// ForceRecoverTolerance is the shortfall a force-recovery refund may
	// carry to cover the transaction fee.
	ForceRecoverTolerance uint64 = 10_000

	// MixinBasicCapacity replaces the configured basic capacity for MIXIN
	// owners, whose longer args need a larger cell.
	MixinBasicCapacity uint64 = 230 * OneCKB

	// CrossChainMinRemaining is how long an account must stay unexpired
	// when it is locked for cross-chain.
	CrossChainMinRemaining uint64 = MonthSec
)

// Config is the complete set of verifier tables.
type Config struct {
	Version    int
	Main       Main
	Account    Account
	Price      Price
	Records    Records
	SubAccount SubAccount
}

// Main holds system status and script identities.
type Main struct {
	// Enabled is false when the system is switched off.
	Enabled bool

	TypeIDs TypeIDs

	// DasLock is the code hash of the account lock.
	DasLock ir.Hash
	// PlatformWallet receives profits and sentinel refunds.
	PlatformWallet ir.Script
	// CrossChainLock is the multisig lock of the cross-chain keepers.
	CrossChainLock ir.Script
	// AlwaysSuccessLock locks sub-account cells.
	AlwaysSuccessLock ir.Script

	// SignAlgorithms is the set of lock kinds whose signatures are checked.
	SignAlgorithms []ir.LockKind
}

// TypeIDs are the code hashes of the type scripts the verifier recognizes.
type TypeIDs struct {
	AccountCell        ir.Hash
	BalanceCell        ir.Hash
	IncomeCell         ir.Hash
	AccountSaleCell    ir.Hash
	AccountAuctionCell ir.Hash
	OfferCell          ir.Hash
	ProposalCell       ir.Hash
	SubAccountCell     ir.Hash
	PointsCell         ir.Hash
	OracleCell         ir.Hash
	EIP712Lib          ir.Hash
}

// Account holds fees, throttles, storage and expiration windows.
type Account struct {
	MaxLength     uint32
	BasicCapacity uint64

	TransferAccountFee uint64
	EditManagerFee     uint64
	EditRecordsFee     uint64
	CommonFee          uint64

	TransferAccountThrottle uint64
	EditManagerThrottle     uint64
	EditRecordsThrottle     uint64

	ExpirationGracePeriod               uint64
	ExpirationAuctionPeriod             uint64
	ExpirationAuctionConfirmationPeriod uint64
	// AuctionStartPremium is the USD premium at the start of the Dutch auction.
	AuctionStartPremium uint64

	RecordsMaxSize uint32
}

// PriceTier is the USD price of names of one length.
type PriceTier struct {
	Length uint8
	New    uint64
	Renew  uint64
}

// Price holds the price tiers.
type Price struct {
	Tiers []PriceTier
}

// Tier returns the tier for a priced length.
func (p Price) Tier(length int) (PriceTier, bool) {
	for _, t := range p.Tiers {
		if int(t.Length) == length {
			return t, true
		}
	}
	return PriceTier{}, false
}

// Records holds record-key rules.
type Records struct {
	// KeyNamespace lists the accepted keys for profile, text and dweb records.
	KeyNamespace []string
}

// HasKey reports whether key is in the namespace.
func (r Records) HasKey(key string) bool {
	for _, k := range r.KeyNamespace {
		if k == key {
			return true
		}
	}
	return false
}

// SubAccount holds sub-account cell sizing.
type SubAccount struct {
	BasicCapacity       uint64
	PreparedFeeCapacity uint64
}

// SignEnabled reports whether signatures of kind are verified.
func (m Main) SignEnabled(kind ir.LockKind) bool {
	for _, k := range m.SignAlgorithms {
		if k == kind {
			return true
		}
	}
	return false
}
