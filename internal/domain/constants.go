package domain

const (
	UserTypeMale   = "male"
	UserTypeFemale = "female"
	UserTypeAgency = "agency"
	UserTypeAdmin  = "admin"
)

// Balance kinds on a user row.
const (
	OperationCoin   = "coin"
	OperationWallet = "wallet"
)

const (
	ActionCredit = "credit"
	ActionDebit  = "debit"
)

const (
	CallStatusCompleted         = "completed"
	CallStatusFailed            = "failed"
	CallStatusInsufficientCoins = "insufficient_coins"
)

const (
	CallTypeVideo = "video"
	CallTypeAudio = "audio"
)

const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing" // approval claimed, payout in flight
	WithdrawalApproved   = "approved"
	WithdrawalRejected   = "rejected"
)

const (
	PayoutMethodBank = "bank"
	PayoutMethodUPI  = "upi"
)

const (
	KYCMethodAccountDetails = "account_details"
	KYCMethodUPI            = "upi_id"
)

const (
	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
	KYCStatusRejected = "rejected"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Values stored in Transaction.RelatedModel.
const (
	RelatedCallHistory = "CallHistory"
	RelatedWithdrawal  = "WithdrawalRequest"
	RelatedGift        = "Gift"
	RelatedCoinPackage = "CoinPackage"
	RelatedUser        = "User"
)

const (
	EarningCall       = "call"
	EarningGift       = "gift"
	EarningReferral   = "referral"
	EarningPurchase   = "purchase"
	EarningPayout     = "withdrawal"
	EarningAdjustment = "admin_adjustment"
)

// System setting keys (admin-tunable).
const (
	SettingMinCallCoins          = "min_call_coins"
	SettingCoinToRupeeRate       = "coin_to_rupee_rate"
	SettingMinWithdrawalAmount   = "min_withdrawal_amount"
	SettingReferralBonus         = "referral_bonus"
	SettingDefaultCoinsPerSecond = "default_coins_per_second"
)

// Used when no referral_bonus is configured.
const FallbackReferralBonus int64 = 100

// Used when neither the receiver nor the platform sets a per-second rate.
const FallbackCoinsPerSecond int64 = 2

const (
	MaxProfileImages  = 5
	MaxCoinsPerSecond = 100
)

// Realtime event types pushed over /ws/events.
const (
	EventCallIncoming      = "call.incoming"
	EventCallEnded         = "call.ended"
	EventBalanceUpdated    = "balance.updated"
	EventWithdrawalUpdated = "withdrawal.updated"
	EventKYCReviewed       = "kyc.reviewed"
	EventGiftReceived      = "gift.received"
	EventProfileReviewed   = "profile.reviewed"
)
