package config

import (
	"github.com/roach88/accountcell/internal/ir"
)

// ScriptID derives a stable placeholder code hash for a named script.
// Default tables and test fixtures use it so that every script identity is
// distinct and reproducible.
func ScriptID(name string) ir.Hash {
	return ir.Blake2b256([]byte("accountcell/script/" + name))
}

func placeholderArgs(name string) ir.Bytes {
	h := ir.Blake160([]byte("accountcell/args/" + name))
	return ir.Bytes(h[:])
}

// Default returns a complete configuration with production-shaped values.
func Default() *Config {
	return &Config{
		Version: 1,
		Main: Main{
			Enabled: true,
			TypeIDs: TypeIDs{
				AccountCell:        ScriptID("account-cell-type"),
				BalanceCell:        ScriptID("balance-cell-type"),
				IncomeCell:         ScriptID("income-cell-type"),
				AccountSaleCell:    ScriptID("account-sale-cell-type"),
				AccountAuctionCell: ScriptID("account-auction-cell-type"),
				OfferCell:          ScriptID("offer-cell-type"),
				ProposalCell:       ScriptID("proposal-cell-type"),
				SubAccountCell:     ScriptID("sub-account-cell-type"),
				PointsCell:         ScriptID("dpoint-cell-type"),
				OracleCell:         ScriptID("oracle-cell-type"),
				EIP712Lib:          ScriptID("eip712-lib"),
			},
			DasLock: ScriptID("das-lock"),
			PlatformWallet: ir.Script{
				CodeHash: ScriptID("secp256k1-blake160"),
				HashType: ir.HashTypeType,
				Args:     placeholderArgs("platform-wallet"),
			},
			CrossChainLock: ir.Script{
				CodeHash: ScriptID("secp256k1-multisig"),
				HashType: ir.HashTypeType,
				Args:     placeholderArgs("cross-chain-keepers"),
			},
			AlwaysSuccessLock: ir.Script{
				CodeHash: ScriptID("always-success"),
				HashType: ir.HashTypeType,
				Args:     ir.Bytes{},
			},
			SignAlgorithms: []ir.LockKind{
				ir.LockCKBSingle,
				ir.LockCKBMulti,
				ir.LockETH,
				ir.LockTRON,
				ir.LockETHTypedData,
				ir.LockMIXIN,
				ir.LockDOGE,
			},
		},
		Account: Account{
			MaxLength:     42,
			BasicCapacity: 206 * OneCKB,

			TransferAccountFee: 10_000,
			EditManagerFee:     10_000,
			EditRecordsFee:     10_000,
			CommonFee:          10_000,

			TransferAccountThrottle: DaySec,
			EditManagerThrottle:     3600,
			EditRecordsThrottle:     600,

			ExpirationGracePeriod:               90 * DaySec,
			ExpirationAuctionPeriod:             27 * DaySec,
			ExpirationAuctionConfirmationPeriod: 3 * DaySec,
			AuctionStartPremium:                 100_000_000 * OneUSD,

			RecordsMaxSize: 5000,
		},
		Price: Price{
			Tiers: []PriceTier{
				{Length: 1, New: 1024 * OneUSD, Renew: 1024 * OneUSD},
				{Length: 2, New: 512 * OneUSD, Renew: 512 * OneUSD},
				{Length: 3, New: 256 * OneUSD, Renew: 256 * OneUSD},
				{Length: 4, New: 160 * OneUSD, Renew: 160 * OneUSD},
				{Length: 5, New: 5 * OneUSD, Renew: 5 * OneUSD},
				{Length: 6, New: 5 * OneUSD, Renew: 5 * OneUSD},
				{Length: 7, New: 5 * OneUSD, Renew: 5 * OneUSD},
				{Length: 8, New: 5 * OneUSD, Renew: 5 * OneUSD},
			},
		},
		Records: Records{
			KeyNamespace: []string{
				"profile.twitter",
				"profile.facebook",
				"profile.github",
				"profile.telegram",
				"profile.website",
				"profile.avatar",
				"profile.description",
				"text.email",
				"text.website",
				"dweb.ipfs",
				"dweb.ipns",
				"dweb.arweave",
			},
		},
		SubAccount: SubAccount{
			BasicCapacity:       200 * OneCKB,
			PreparedFeeCapacity: OneCKB,
		},
	}
}
