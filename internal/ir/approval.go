package ir

// ApprovalActionTransfer is the only approval action the account cell knows.
const ApprovalActionTransfer = "transfer"

// TransferApproval pre-authorizes a transfer of the account to ToLock.
//
// Before ProtectedUntil only the owner may change it; after that the
// platform may revoke it. After SealedUntil anyone may fulfill it.
type TransferApproval struct {
	PlatformLock     Script `json:"platform_lock" yaml:"platform_lock"`
	ProtectedUntil   uint64 `json:"protected_until" yaml:"protected_until"`
	SealedUntil      uint64 `json:"sealed_until" yaml:"sealed_until"`
	DelayCountRemain uint8  `json:"delay_count_remain" yaml:"delay_count_remain"`
	ToLock           Script `json:"to_lock" yaml:"to_lock"`
}

// Approval is the approval slot of the latest record version. An empty
// Action means no approval is pending.
type Approval struct {
	Action string           `json:"action" yaml:"action"`
	Params TransferApproval `json:"params" yaml:"params"`
}

// IsEmpty reports whether no approval is pending.
func (a Approval) IsEmpty() bool {
	return a.Action == ""
}

// IR returns the approval as an IRObject. An empty approval is an empty object.
func (a Approval) IR() IRObject {
	if a.IsEmpty() {
		return IRObject{}
	}
	return IRObject{
		"action": IRString(a.Action),
		"params": IRObject{
			"platform_lock":      a.Params.PlatformLock.IR(),
			"protected_until":    IRUint(a.Params.ProtectedUntil),
			"sealed_until":       IRUint(a.Params.SealedUntil),
			"delay_count_remain": IRInt(a.Params.DelayCountRemain),
			"to_lock":            a.Params.ToLock.IR(),
		},
	}
}
