package config

import (
	"github.com/roach88/accountcell/internal/ir"
)

// IR returns the configuration as an IRObject.
func (c *Config) IR() ir.IRObject {
	kinds := make(ir.IRArray, len(c.Main.SignAlgorithms))
	for i, k := range c.Main.SignAlgorithms {
		kinds[i] = ir.IRString(k.String())
	}
	tiers := make(ir.IRArray, len(c.Price.Tiers))
	for i, t := range c.Price.Tiers {
		tiers[i] = ir.IRObject{
			"length": ir.IRInt(t.Length),
			"new":    ir.IRUint(t.New),
			"renew":  ir.IRUint(t.Renew),
		}
	}
	keys := make(ir.IRArray, len(c.Records.KeyNamespace))
	for i, k := range c.Records.KeyNamespace {
		keys[i] = ir.IRString(k)
	}
	ids := c.Main.TypeIDs
	hash := func(h ir.Hash) ir.IRString { return ir.IRString(h.String()) }
	a := c.Account

	return ir.IRObject{
		"version": ir.IRInt(c.Version),
		"main": ir.IRObject{
			"enabled": ir.IRBool(c.Main.Enabled),
			"type_ids": ir.IRObject{
				"account_cell":         hash(ids.AccountCell),
				"balance_cell":         hash(ids.BalanceCell),
				"income_cell":          hash(ids.IncomeCell),
				"account_sale_cell":    hash(ids.AccountSaleCell),
				"account_auction_cell": hash(ids.AccountAuctionCell),
				"offer_cell":           hash(ids.OfferCell),
				"proposal_cell":        hash(ids.ProposalCell),
				"sub_account_cell":     hash(ids.SubAccountCell),
				"points_cell":          hash(ids.PointsCell),
				"oracle_cell":          hash(ids.OracleCell),
				"eip712_lib":           hash(ids.EIP712Lib),
			},
			"das_lock":            hash(c.Main.DasLock),
			"platform_wallet":     c.Main.PlatformWallet.IR(),
			"cross_chain_lock":    c.Main.CrossChainLock.IR(),
			"always_success_lock": c.Main.AlwaysSuccessLock.IR(),
			"sign_algorithms":     kinds,
		},
		"account": ir.IRObject{
			"max_length":                             ir.IRInt(a.MaxLength),
			"basic_capacity":                         ir.IRUint(a.BasicCapacity),
			"transfer_account_fee":                   ir.IRUint(a.TransferAccountFee),
			"edit_manager_fee":                       ir.IRUint(a.EditManagerFee),
			"edit_records_fee":                       ir.IRUint(a.EditRecordsFee),
			"common_fee":                             ir.IRUint(a.CommonFee),
			"transfer_account_throttle":              ir.IRUint(a.TransferAccountThrottle),
			"edit_manager_throttle":                  ir.IRUint(a.EditManagerThrottle),
			"edit_records_throttle":                  ir.IRUint(a.EditRecordsThrottle),
			"expiration_grace_period":                ir.IRUint(a.ExpirationGracePeriod),
			"expiration_auction_period":              ir.IRUint(a.ExpirationAuctionPeriod),
			"expiration_auction_confirmation_period": ir.IRUint(a.ExpirationAuctionConfirmationPeriod),
			"auction_start_premium":                  ir.IRUint(a.AuctionStartPremium),
			"records_max_size":                       ir.IRInt(a.RecordsMaxSize),
		},
		"price":   ir.IRObject{"tiers": tiers},
		"records": ir.IRObject{"key_namespace": keys},
		"sub_account": ir.IRObject{
			"basic_capacity":        ir.IRUint(c.SubAccount.BasicCapacity),
			"prepared_fee_capacity": ir.IRUint(c.SubAccount.PreparedFeeCapacity),
		},
	}
}

// Digest identifies the configuration in journal rows.
func (c *Config) Digest() (string, error) {
	return ir.ConfigDigest(c.IR())
}
