// Package compiler turns CUE configuration into verifier tables.
//
// CompileConfig unifies a value with the embedded #Config schema, requires it
// to be concrete, and decodes it into a config.Config. Validate then checks
// the rules that span tables and cannot be stated in the schema.
package compiler

import (
	_ "embed"

	"cuelang.org/go/cue"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// rawConfig mirrors #Config for cue.Value.Decode.
type rawConfig struct {
	Version int `json:"version"`
	Main    struct {
		Enabled           bool              `json:"enabled"`
		TypeIDs           map[string]string `json:"type_ids"`
		DasLock           string            `json:"das_lock"`
		PlatformWallet    rawScript         `json:"platform_wallet"`
		CrossChainLock    rawScript         `json:"cross_chain_lock"`
		AlwaysSuccessLock rawScript         `json:"always_success_lock"`
		SignAlgorithms    []string          `json:"sign_algorithms"`
	} `json:"main"`
	Account struct {
		MaxLength     uint32 `json:"max_length"`
		BasicCapacity uint64 `json:"basic_capacity"`

		TransferAccountFee uint64 `json:"transfer_account_fee"`
		EditManagerFee     uint64 `json:"edit_manager_fee"`
		EditRecordsFee     uint64 `json:"edit_records_fee"`
		CommonFee          uint64 `json:"common_fee"`

		TransferAccountThrottle uint64 `json:"transfer_account_throttle"`
		EditManagerThrottle     uint64 `json:"edit_manager_throttle"`
		EditRecordsThrottle     uint64 `json:"edit_records_throttle"`

		ExpirationGracePeriod               uint64 `json:"expiration_grace_period"`
		ExpirationAuctionPeriod             uint64 `json:"expiration_auction_period"`
		ExpirationAuctionConfirmationPeriod uint64 `json:"expiration_auction_confirmation_period"`
		AuctionStartPremium                 uint64 `json:"auction_start_premium"`

		RecordsMaxSize uint32 `json:"records_max_size"`
	} `json:"account"`
	Price struct {
		Tiers []struct {
			Length uint8  `json:"length"`
			New    uint64 `json:"new"`
			Renew  uint64 `json:"renew"`
		} `json:"tiers"`
	} `json:"price"`
	Records struct {
		KeyNamespace []string `json:"key_namespace"`
	} `json:"records"`
	SubAccount struct {
		BasicCapacity       uint64 `json:"basic_capacity"`
		PreparedFeeCapacity uint64 `json:"prepared_fee_capacity"`
	} `json:"sub_account"`
}

type rawScript struct {
	CodeHash string `json:"code_hash"`
	HashType string `json:"hash_type"`
	Args     string `json:"args"`
}

// typeIDFields binds each type_ids label to its config field.
var typeIDFields = []struct {
	Label string
	Field func(*config.TypeIDs) *ir.Hash
}{
	{"account_cell", func(t *config.TypeIDs) *ir.Hash { return &t.AccountCell }},
	{"balance_cell", func(t *config.TypeIDs) *ir.Hash { return &t.BalanceCell }},
	{"income_cell", func(t *config.TypeIDs) *ir.Hash { return &t.IncomeCell }},
	{"account_sale_cell", func(t *config.TypeIDs) *ir.Hash { return &t.AccountSaleCell }},
	{"account_auction_cell", func(t *config.TypeIDs) *ir.Hash { return &t.AccountAuctionCell }},
	{"offer_cell", func(t *config.TypeIDs) *ir.Hash { return &t.OfferCell }},
	{"proposal_cell", func(t *config.TypeIDs) *ir.Hash { return &t.ProposalCell }},
	{"sub_account_cell", func(t *config.TypeIDs) *ir.Hash { return &t.SubAccountCell }},
	{"points_cell", func(t *config.TypeIDs) *ir.Hash { return &t.PointsCell }},
	{"oracle_cell", func(t *config.TypeIDs) *ir.Hash { return &t.OracleCell }},
	{"eip712_lib", func(t *config.TypeIDs) *ir.Hash { return &t.EIP712Lib }},
}

// Schema returns the #Config definition compiled in the context of v.
func Schema(v cue.Value) cue.Value {
	return v.Context().CompileString(schemaCUE, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
}

// CompileConfig parses a CUE value into a config.Config.
//
// The value should be the config struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	cfg, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
func CompileConfig(v cue.Value) (*config.Config, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "config", Message: "config is required", Pos: v.Pos()}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := Schema(v)
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawConfig
	if err := u.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}
	return build(u, &raw)
}

func build(v cue.Value, raw *rawConfig) (*config.Config, error) {
	cfg := &config.Config{Version: raw.Version}

	m := &cfg.Main
	m.Enabled = raw.Main.Enabled
	for _, f := range typeIDFields {
		path := "main.type_ids." + f.Label
		h, err := ir.ParseHash(raw.Main.TypeIDs[f.Label])
		if err != nil {
			return nil, fieldError(v, path, "%v", err)
		}
		*f.Field(&m.TypeIDs) = h
	}
	h, err := ir.ParseHash(raw.Main.DasLock)
	if err != nil {
		return nil, fieldError(v, "main.das_lock", "%v", err)
	}
	m.DasLock = h

	scripts := []struct {
		path string
		raw  rawScript
		dst  *ir.Script
	}{
		{"main.platform_wallet", raw.Main.PlatformWallet, &m.PlatformWallet},
		{"main.cross_chain_lock", raw.Main.CrossChainLock, &m.CrossChainLock},
		{"main.always_success_lock", raw.Main.AlwaysSuccessLock, &m.AlwaysSuccessLock},
	}
	for _, s := range scripts {
		script, err := buildScript(v, s.path, s.raw)
		if err != nil {
			return nil, err
		}
		*s.dst = script
	}

	for i, name := range raw.Main.SignAlgorithms {
		kind, err := ir.ParseLockKind(name)
		if err != nil {
			return nil, fieldError(v, "main.sign_algorithms", "entry %d: %v", i, err)
		}
		m.SignAlgorithms = append(m.SignAlgorithms, kind)
	}

	a := raw.Account
	cfg.Account = config.Account{
		MaxLength:     a.MaxLength,
		BasicCapacity: a.BasicCapacity,

		TransferAccountFee: a.TransferAccountFee,
		EditManagerFee:     a.EditManagerFee,
		EditRecordsFee:     a.EditRecordsFee,
		CommonFee:          a.CommonFee,

		TransferAccountThrottle: a.TransferAccountThrottle,
		EditManagerThrottle:     a.EditManagerThrottle,
		EditRecordsThrottle:     a.EditRecordsThrottle,

		ExpirationGracePeriod:               a.ExpirationGracePeriod,
		ExpirationAuctionPeriod:             a.ExpirationAuctionPeriod,
		ExpirationAuctionConfirmationPeriod: a.ExpirationAuctionConfirmationPeriod,
		AuctionStartPremium:                 a.AuctionStartPremium,

		RecordsMaxSize: a.RecordsMaxSize,
	}

	for _, t := range raw.Price.Tiers {
		cfg.Price.Tiers = append(cfg.Price.Tiers, config.PriceTier{Length: t.Length, New: t.New, Renew: t.Renew})
	}
	cfg.Records.KeyNamespace = append([]string(nil), raw.Records.KeyNamespace...)
	cfg.SubAccount = config.SubAccount{
		BasicCapacity:       raw.SubAccount.BasicCapacity,
		PreparedFeeCapacity: raw.SubAccount.PreparedFeeCapacity,
	}
	return cfg, nil
}

func buildScript(v cue.Value, path string, raw rawScript) (ir.Script, error) {
	var s ir.Script
	h, err := ir.ParseHash(raw.CodeHash)
	if err != nil {
		return s, fieldError(v, path+".code_hash", "%v", err)
	}
	s.CodeHash = h
	if err := s.HashType.UnmarshalText([]byte(raw.HashType)); err != nil {
		return s, fieldError(v, path+".hash_type", "%v", err)
	}
	args, err := ir.ParseBytes(raw.Args)
	if err != nil {
		return s, fieldError(v, path+".args", "%v", err)
	}
	s.Args = args
	return s, nil
}
