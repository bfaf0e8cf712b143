package engine

import (
	"errors"
	"fmt"
	"sort"
)

// ErrorCode is the stable numeric verdict code. Zero means accept.
// Codes are part of the external contract and never change meaning.
type ErrorCode int

// Structural errors.
const (
	ErrCodeIndexOutOfBound             ErrorCode = 1
	ErrCodeItemMissing                 ErrorCode = 2
	ErrCodeInvalidTransactionStructure ErrorCode = 6
	ErrCodeInvalidCellData             ErrorCode = 7
	ErrCodeInvalidLockArgs             ErrorCode = 8
	ErrCodeConfigIsRequired            ErrorCode = 11
	ErrCodeOracleCellIsRequired        ErrorCode = 12
	ErrCodeWitnessReadingError         ErrorCode = 20
	ErrCodeWitnessEntityMissing        ErrorCode = 21
	ErrCodeWitnessDataIsCorrupted      ErrorCode = 22
	ErrCodeWitnessVersionUnsupported   ErrorCode = 23
	ErrCodeActionNotSupported          ErrorCode = 40
	ErrCodeSystemOff                   ErrorCode = 41
	ErrCodeCompanionScriptRequired     ErrorCode = 42
	ErrCodeExecutionBudgetExceeded     ErrorCode = 43
)

// Consistency errors.
const (
	ErrCodeAccountCellDataNotConsistent        ErrorCode = 100
	ErrCodeAccountCellProtectFieldIsModified   ErrorCode = 101
	ErrCodeAccountCellOwnerLockShouldBeChanged ErrorCode = 102
	ErrCodeAccountCellManagerLockShouldChange  ErrorCode = 103
	ErrCodeAccountCellLockShouldNotBeModified  ErrorCode = 104
	ErrCodeAccountCellTypeShouldNotBeModified  ErrorCode = 105
	ErrCodeAccountCellRecordNotEmpty           ErrorCode = 106
	ErrCodeAccountCellRecordKeyInvalid         ErrorCode = 107
	ErrCodeAccountCellRecordSizeTooLarge       ErrorCode = 108
	ErrCodeAccountCellMissingPrevAccount       ErrorCode = 109
	ErrCodeAccountCellNextUpdateError          ErrorCode = 110
	ErrCodeAccountCellOwnerShouldBeManager     ErrorCode = 111
	ErrCodeAccountCellFieldNotInitialized      ErrorCode = 112
)

// Economic errors.
const (
	ErrCodeTxFeeSpentError                 ErrorCode = 120
	ErrCodeCapacityBelowStorage            ErrorCode = 121
	ErrCodeAccountCellCapacityDecreased    ErrorCode = 122
	ErrCodeChangeError                     ErrorCode = 123
	ErrCodeRefundError                     ErrorCode = 124
	ErrCodeIncomeCellProfitMismatch        ErrorCode = 125
	ErrCodeRenewDurationMustLongerThanYear ErrorCode = 126
	ErrCodeRenewDurationMismatch           ErrorCode = 127
	ErrCodePriceTierMissing                ErrorCode = 128
	ErrCodePointsLedgerMismatch            ErrorCode = 129
	ErrCodeBidPriceTooLow                  ErrorCode = 130
	ErrCodeSubAccountCellCapacityError     ErrorCode = 131
)

// Temporal errors.
const (
	ErrCodeAccountCellHasExpired            ErrorCode = 140
	ErrCodeAccountCellInGracePeriod         ErrorCode = 141
	ErrCodeAccountCellInAuctionPeriod       ErrorCode = 142
	ErrCodeAccountCellInAuctionConfirmation ErrorCode = 143
	ErrCodeAccountCellIsNotExpired          ErrorCode = 144
	ErrCodeAccountCellThrottle              ErrorCode = 145
	ErrCodeAccountCellTimestampMismatch     ErrorCode = 146
	ErrCodeCrossChainLockExpiryTooClose     ErrorCode = 147
	ErrCodeAccountCellNotInAuctionPeriod    ErrorCode = 148
	ErrCodeAccountCellStillCanNotRecycle    ErrorCode = 149
)

// Status and permission errors.
const (
	ErrCodeAccountCellStatusLocked    ErrorCode = 160
	ErrCodeAccountCellStatusError     ErrorCode = 161
	ErrCodeUnsupportedTransition      ErrorCode = 162
	ErrCodePermissionDenied           ErrorCode = 163
	ErrCodeApprovalParamsInvalid      ErrorCode = 164
	ErrCodeApprovalInProtectionPeriod ErrorCode = 165
	ErrCodeApprovalToLockMismatch     ErrorCode = 166
	ErrCodeSubAccountFlagError        ErrorCode = 167
	ErrCodeAccountOwnerIsBlackHole    ErrorCode = 168
)

// Signature errors.
const (
	ErrCodeSignatureVerifyFailed    ErrorCode = 180
	ErrCodeUnsupportedSignAlgorithm ErrorCode = 181
	ErrCodeSignatureMissing         ErrorCode = 182
)

// ErrCodeUnknown is reported by CodeOf for errors that are not verdicts.
const ErrCodeUnknown ErrorCode = -1

var codeNames = map[ErrorCode]string{
	ErrCodeIndexOutOfBound:             "IndexOutOfBound",
	ErrCodeItemMissing:                 "ItemMissing",
	ErrCodeInvalidTransactionStructure: "InvalidTransactionStructure",
	ErrCodeInvalidCellData:             "InvalidCellData",
	ErrCodeInvalidLockArgs:             "InvalidLockArgs",
	ErrCodeConfigIsRequired:            "ConfigIsRequired",
	ErrCodeOracleCellIsRequired:        "OracleCellIsRequired",
	ErrCodeWitnessReadingError:         "WitnessReadingError",
	ErrCodeWitnessEntityMissing:        "WitnessEntityMissing",
	ErrCodeWitnessDataIsCorrupted:      "WitnessDataIsCorrupted",
	ErrCodeWitnessVersionUnsupported:   "WitnessVersionUnsupported",
	ErrCodeActionNotSupported:          "ActionNotSupported",
	ErrCodeSystemOff:                   "SystemOff",
	ErrCodeCompanionScriptRequired:     "CompanionScriptRequired",
	ErrCodeExecutionBudgetExceeded:     "ExecutionBudgetExceeded",

	ErrCodeAccountCellDataNotConsistent:        "AccountCellDataNotConsistent",
	ErrCodeAccountCellProtectFieldIsModified:   "AccountCellProtectFieldIsModified",
	ErrCodeAccountCellOwnerLockShouldBeChanged: "AccountCellOwnerLockShouldBeModified",
	ErrCodeAccountCellManagerLockShouldChange:  "AccountCellManagerLockShouldBeModified",
	ErrCodeAccountCellLockShouldNotBeModified:  "AccountCellLockShouldNotBeModified",
	ErrCodeAccountCellTypeShouldNotBeModified:  "AccountCellTypeShouldNotBeModified",
	ErrCodeAccountCellRecordNotEmpty:           "AccountCellRecordNotEmpty",
	ErrCodeAccountCellRecordKeyInvalid:         "AccountCellRecordKeyInvalid",
	ErrCodeAccountCellRecordSizeTooLarge:       "AccountCellRecordSizeTooLarge",
	ErrCodeAccountCellMissingPrevAccount:       "AccountCellMissingPrevAccount",
	ErrCodeAccountCellNextUpdateError:          "AccountCellNextUpdateError",
	ErrCodeAccountCellOwnerShouldBeManager:     "AccountCellOwnerShouldBeManager",
	ErrCodeAccountCellFieldNotInitialized:      "AccountCellFieldNotInitialized",

	ErrCodeTxFeeSpentError:                 "TxFeeSpentError",
	ErrCodeCapacityBelowStorage:            "CapacityBelowStorage",
	ErrCodeAccountCellCapacityDecreased:    "AccountCellCapacityDecreased",
	ErrCodeChangeError:                     "ChangeError",
	ErrCodeRefundError:                     "RefundError",
	ErrCodeIncomeCellProfitMismatch:        "IncomeCellProfitMismatch",
	ErrCodeRenewDurationMustLongerThanYear: "RenewDurationMustLongerThanYear",
	ErrCodeRenewDurationMismatch:           "RenewDurationMismatch",
	ErrCodePriceTierMissing:                "PriceTierMissing",
	ErrCodePointsLedgerMismatch:            "PointsLedgerMismatch",
	ErrCodeBidPriceTooLow:                  "BidPriceTooLow",
	ErrCodeSubAccountCellCapacityError:     "SubAccountCellCapacityError",

	ErrCodeAccountCellHasExpired:            "AccountCellHasExpired",
	ErrCodeAccountCellInGracePeriod:         "AccountCellInExpirationGracePeriod",
	ErrCodeAccountCellInAuctionPeriod:       "AccountCellInExpirationAuctionPeriod",
	ErrCodeAccountCellInAuctionConfirmation: "AccountCellInExpirationAuctionConfirmationPeriod",
	ErrCodeAccountCellIsNotExpired:          "AccountCellIsNotExpired",
	ErrCodeAccountCellThrottle:              "AccountCellThrottle",
	ErrCodeAccountCellTimestampMismatch:     "AccountCellTimestampMismatch",
	ErrCodeCrossChainLockExpiryTooClose:     "CrossChainLockExpiryTooClose",
	ErrCodeAccountCellNotInAuctionPeriod:    "AccountCellNotInAuctionPeriod",
	ErrCodeAccountCellStillCanNotRecycle:    "AccountCellStillCanNotRecycle",

	ErrCodeAccountCellStatusLocked:    "AccountCellStatusLocked",
	ErrCodeAccountCellStatusError:     "AccountCellStatusError",
	ErrCodeUnsupportedTransition:      "UnsupportedTransition",
	ErrCodePermissionDenied:           "PermissionDenied",
	ErrCodeApprovalParamsInvalid:      "ApprovalParamsInvalid",
	ErrCodeApprovalInProtectionPeriod: "ApprovalInProtectionPeriod",
	ErrCodeApprovalToLockMismatch:     "ApprovalToLockMismatch",
	ErrCodeSubAccountFlagError:        "SubAccountFlagError",
	ErrCodeAccountOwnerIsBlackHole:    "AccountOwnerIsBlackHole",

	ErrCodeSignatureVerifyFailed:    "SignatureVerifyFailed",
	ErrCodeUnsupportedSignAlgorithm: "UnsupportedSignAlgorithm",
	ErrCodeSignatureMissing:         "SignatureMissing",
}

// String returns the code's name.
func (c ErrorCode) String() string {
	if c == 0 {
		return "Accept"
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ParseErrorCode resolves a code name. "Accept" resolves to zero.
func ParseErrorCode(name string) (ErrorCode, bool) {
	if name == "Accept" {
		return 0, true
	}
	for c, n := range codeNames {
		if n == name {
			return c, true
		}
	}
	return ErrCodeUnknown, false
}

// Family groups codes the way operators triage them.
type Family string

const (
	FamilyAccept      Family = "accept"
	FamilyStructural  Family = "structural"
	FamilyConsistency Family = "consistency"
	FamilyEconomic    Family = "economic"
	FamilyTemporal    Family = "temporal"
	FamilyStatus      Family = "status"
	FamilySignature   Family = "signature"
)

// Family returns the error family of c.
func (c ErrorCode) Family() Family {
	switch {
	case c == 0:
		return FamilyAccept
	case c >= 180:
		return FamilySignature
	case c >= 160:
		return FamilyStatus
	case c >= 140:
		return FamilyTemporal
	case c >= 120:
		return FamilyEconomic
	case c >= 100:
		return FamilyConsistency
	default:
		return FamilyStructural
	}
}

// Codes returns every defined code in ascending order.
func Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(codeNames))
	for c := range codeNames {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VerifyError is a rejection verdict.
//
// Every rejection carries exactly one code; there is no partial acceptance.
// Details carries diagnostic context (indexes, expected and actual values)
// and is never part of the contract.
type VerifyError struct {
	// Code identifies the rule that rejected the transaction.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s(%d): %s", e.Code, int(e.Code), e.Message)
}

// With adds a detail and returns e for chaining.
func (e *VerifyError) With(key string, value any) *VerifyError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = fmt.Sprint(value)
	return e
}

func newVerifyError(code ErrorCode, format string, args ...any) *VerifyError {
	return &VerifyError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the verdict code of err: 0 for nil, the code of a wrapped
// VerifyError, or ErrCodeUnknown otherwise.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ErrCodeUnknown
}

// IsCode returns true if err is a VerifyError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}
