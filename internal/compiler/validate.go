package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNilConfig = "E100" // no config to validate

	// Main table (E110-E119)
	ErrZeroScriptID       = "E110" // a script identity is the zero hash
	ErrDuplicateScriptID  = "E111" // two type ids share a code hash
	ErrUnsupportedSigning = "E112" // a sign algorithm that can never verify
	ErrDuplicateSigning   = "E113" // a sign algorithm listed twice

	// Account table (E120-E129)
	ErrBasicCapacityTooLow = "E120" // basic capacity below an empty cell
	ErrZeroWindow          = "E121" // an expiration window is zero
	ErrZeroThrottle        = "E122" // a throttle interval is zero

	// Price table (E130-E139)
	ErrMissingTier    = "E130" // a priced length has no tier
	ErrDuplicateTier  = "E131" // a priced length has two tiers
	ErrTierOutOfRange = "E132" // a tier length past the priced maximum
	ErrZeroPrice      = "E133" // a tier renews for free

	// Records table (E140-E149)
	ErrInvalidKeyNamespace = "E140" // a key outside profile/text/dweb
	ErrDuplicateKey        = "E141" // a key listed twice

	// Sub-account table (E150-E159)
	ErrSubAccountCapacityTooLow = "E150" // sub-account cell below an empty cell
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the rules that span fields of a compiled config.
// Returns all errors found (does not fail-fast).
func Validate(cfg *config.Config) []ValidationError {
	if cfg == nil {
		return []ValidationError{{Field: "config", Message: "config is nil", Code: ErrNilConfig}}
	}
	var errs []ValidationError
	errs = append(errs, validateMain(cfg.Main)...)
	errs = append(errs, validateAccount(cfg.Account)...)
	errs = append(errs, validatePrice(cfg.Price)...)
	errs = append(errs, validateRecords(cfg.Records)...)
	if cfg.SubAccount.BasicCapacity < config.CellBasic {
		errs = append(errs, ValidationError{
			Field:   "sub_account.basic_capacity",
			Message: fmt.Sprintf("%d is below the %d shannons an empty cell occupies", cfg.SubAccount.BasicCapacity, config.CellBasic),
			Code:    ErrSubAccountCapacityTooLow,
		})
	}
	return errs
}

func validateMain(m config.Main) []ValidationError {
	var errs []ValidationError

	seen := make(map[ir.Hash]string)
	for _, f := range typeIDFields {
		ids := m.TypeIDs
		h := *f.Field(&ids)
		field := "main.type_ids." + f.Label
		if h.IsZero() {
			errs = append(errs, ValidationError{Field: field, Message: "code hash is zero", Code: ErrZeroScriptID})
			continue
		}
		if prev, ok := seen[h]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("code hash %s is also used by %s", h, prev),
				Code:    ErrDuplicateScriptID,
			})
			continue
		}
		seen[h] = f.Label
	}
	locks := []struct {
		field string
		hash  ir.Hash
	}{
		{"main.das_lock", m.DasLock},
		{"main.platform_wallet.code_hash", m.PlatformWallet.CodeHash},
		{"main.cross_chain_lock.code_hash", m.CrossChainLock.CodeHash},
		{"main.always_success_lock.code_hash", m.AlwaysSuccessLock.CodeHash},
	}
	for _, l := range locks {
		if l.hash.IsZero() {
			errs = append(errs, ValidationError{Field: l.field, Message: "code hash is zero", Code: ErrZeroScriptID})
		}
	}

	kinds := make(map[ir.LockKind]bool)
	for i, k := range m.SignAlgorithms {
		field := fmt.Sprintf("main.sign_algorithms[%d]", i)
		switch {
		case k == ir.LockReserved || k == ir.LockWebAuthn:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s signatures cannot be verified", k),
				Code:    ErrUnsupportedSigning,
			})
		case kinds[k]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s is listed twice", k),
				Code:    ErrDuplicateSigning,
			})
		}
		kinds[k] = true
	}
	return errs
}

func validateAccount(a config.Account) []ValidationError {
	var errs []ValidationError
	if a.BasicCapacity < config.CellBasic {
		errs = append(errs, ValidationError{
			Field:   "account.basic_capacity",
			Message: fmt.Sprintf("%d is below the %d shannons an empty cell occupies", a.BasicCapacity, config.CellBasic),
			Code:    ErrBasicCapacityTooLow,
		})
	}

	windows := []struct {
		field string
		value uint64
	}{
		{"account.expiration_grace_period", a.ExpirationGracePeriod},
		{"account.expiration_auction_period", a.ExpirationAuctionPeriod},
		{"account.expiration_auction_confirmation_period", a.ExpirationAuctionConfirmationPeriod},
	}
	for _, w := range windows {
		if w.value == 0 {
			errs = append(errs, ValidationError{Field: w.field, Message: "window must be longer than zero", Code: ErrZeroWindow})
		}
	}

	throttles := []struct {
		field string
		value uint64
	}{
		{"account.transfer_account_throttle", a.TransferAccountThrottle},
		{"account.edit_manager_throttle", a.EditManagerThrottle},
		{"account.edit_records_throttle", a.EditRecordsThrottle},
	}
	for _, th := range throttles {
		if th.value == 0 {
			errs = append(errs, ValidationError{Field: th.field, Message: "throttle must be longer than zero", Code: ErrZeroThrottle})
		}
	}
	return errs
}

// validatePrice requires exactly one tier per priced length.
func validatePrice(p config.Price) []ValidationError {
	var errs []ValidationError
	count := make(map[uint8]int)
	for i, t := range p.Tiers {
		field := fmt.Sprintf("price.tiers[%d]", i)
		if int(t.Length) > config.AccountMaxPricedLength {
			errs = append(errs, ValidationError{
				Field:   field + ".length",
				Message: fmt.Sprintf("length %d is past the priced maximum %d", t.Length, config.AccountMaxPricedLength),
				Code:    ErrTierOutOfRange,
			})
			continue
		}
		count[t.Length]++
		if count[t.Length] == 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".length",
				Message: fmt.Sprintf("length %d has more than one tier", t.Length),
				Code:    ErrDuplicateTier,
			})
		}
		if t.Renew == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".renew",
				Message: fmt.Sprintf("length %d renews for free", t.Length),
				Code:    ErrZeroPrice,
			})
		}
	}
	for n := 1; n <= config.AccountMaxPricedLength; n++ {
		if count[uint8(n)] == 0 {
			errs = append(errs, ValidationError{
				Field:   "price.tiers",
				Message: fmt.Sprintf("no tier for length %d", n),
				Code:    ErrMissingTier,
			})
		}
	}
	return errs
}

var keyNamespaces = []string{"profile.", "text.", "dweb."}

func validateRecords(r config.Records) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, key := range r.KeyNamespace {
		field := fmt.Sprintf("records.key_namespace[%d]", i)
		if !hasNamespace(key) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("key %q must start with one of %v", key, keyNamespaces),
				Code:    ErrInvalidKeyNamespace,
			})
		}
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("key %q is listed twice", key),
				Code:    ErrDuplicateKey,
			})
		}
		seen[key] = true
	}
	return errs
}

func hasNamespace(key string) bool {
	for _, ns := range keyNamespaces {
		if rest, ok := strings.CutPrefix(key, ns); ok && rest != "" {
			return true
		}
	}
	return false
}
