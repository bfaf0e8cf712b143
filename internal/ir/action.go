package ir

// Action names the transition a transaction requests. The action witness
// carries it as a plain string.
type Action string

// Actions verified by the account cell itself.
const (
	ActionTransferAccount              Action = "transfer_account"
	ActionEditManager                  Action = "edit_manager"
	ActionEditRecords                  Action = "edit_records"
	ActionRenewAccount                 Action = "renew_account"
	ActionLockAccountForCrossChain     Action = "lock_account_for_cross_chain"
	ActionUnlockAccountForCrossChain   Action = "unlock_account_for_cross_chain"
	ActionRecycleExpiredAccount        Action = "recycle_expired_account"
	ActionForceRecoverAccountStatus    Action = "force_recover_account_status"
	ActionBidExpiredAccountAuction     Action = "bid_expired_account_auction"
	ActionConfirmExpiredAccountAuction Action = "confirm_expired_account_auction"
	ActionEnableSubAccount             Action = "enable_sub_account"
	ActionCreateApproval               Action = "create_approval"
	ActionDelayApproval                Action = "delay_approval"
	ActionRevokeApproval               Action = "revoke_approval"
	ActionFulfillApproval              Action = "fulfill_approval"
)

// Actions whose rules live in a companion script.
const (
	ActionStartAccountSale             Action = "start_account_sale"
	ActionCancelAccountSale            Action = "cancel_account_sale"
	ActionBuyAccount                   Action = "buy_account"
	ActionStartAccountAuction          Action = "start_account_auction"
	ActionCancelAccountAuction         Action = "cancel_account_auction"
	ActionBidAccountAuction            Action = "bid_account_auction"
	ActionAcceptOffer                  Action = "accept_offer"
	ActionConfirmProposal              Action = "confirm_proposal"
	ActionConfigSubAccount             Action = "config_sub_account"
	ActionConfigSubAccountCustomScript Action = "config_sub_account_custom_script"
	ActionInitAccountChain             Action = "init_account_chain"
)
