package loyalty

import (
	"time"

	"github.com/shopspring/decimal"

	"loyaltyetl/pkg/utils"
)

// Warehouse target table names, in load order
const (
	TableDimTier                = "dim_tier"
	TableDimLoyaltyUsers        = "dim_loyalty_users"
	TableFactWalletTransactions = "fact_wallet_transactions"
	TableFactReferrals          = "fact_referrals"
	TableFactLeads              = "fact_leads"
	TableFactWithdrawals        = "fact_withdrawals"
)

// TargetTables lists every warehouse table a run produces, in load order
var TargetTables = []string{
	TableDimTier,
	TableDimLoyaltyUsers,
	TableFactWalletTransactions,
	TableFactReferrals,
	TableFactLeads,
	TableFactWithdrawals,
}

// LoadTimestampColumn is stamped by the stager at write time. It is distinct
// from any timestamp the source record carries.
const LoadTimestampColumn = "etl_loaded_at"

// WarehouseColumns gives the staged column order per target table, excluding
// the trailing load timestamp column. COPY statements must list columns in
// exactly this order.
var WarehouseColumns = map[string][]string{
	TableDimTier: {"tier_id", "tier_name", "redemption_rate"},
	TableDimLoyaltyUsers: {
		"user_id", "user_name", "phone_number", "phone_normalized", "email",
		"tier_id", "tier_name", "referral_code",
		"remaining_coins", "total_earned", "total_used", "signup_date",
	},
	TableFactWalletTransactions: {
		"transaction_id", "user_id", "transaction_type", "title",
		"amount", "reason", "status", "created_at",
	},
	TableFactReferrals: {
		"referral_id", "referrer_user_id", "referred_phone", "referred_phone_normalized",
		"referral_code", "bonus_amount", "status", "created_at",
		"referrer_name", "referred_name", "referred_user_id",
	},
	TableFactLeads: {
		"lead_id", "generator_user_id", "lead_name", "lead_phone", "occasion_name",
		"lead_stage", "estimated_value", "created_at", "generator_name",
	},
	TableFactWithdrawals: {
		"withdrawal_id", "user_id", "requested_amount", "approved_amount", "status",
		"bank_id", "upi_id", "created_at", "processed_at", "user_name",
	},
}

// Transaction type tags derived from the ledger's sign convention
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Referral statuses derived from whether the code was applied
const (
	ReferralStatusApplied = "applied"
	ReferralStatusPending = "pending"
)

// TierDimension is a row of dim_tier
type TierDimension struct {
	TierID         string
	TierName       string
	RedemptionRate decimal.Decimal
}

// Row renders the record in dim_tier column order
func (t TierDimension) Row() []string {
	return []string{t.TierID, t.TierName, t.RedemptionRate.StringFixed(2)}
}

// UserDimension is a row of dim_loyalty_users: user identity joined with the
// wallet balances and the resolved tier name.
type UserDimension struct {
	UserID          string
	UserName        string
	PhoneNumber     string
	PhoneNormalized string
	Email           string
	TierID          string
	TierName        string
	ReferralCode    string
	RemainingCoins  decimal.Decimal
	TotalEarned     decimal.Decimal
	TotalUsed       decimal.Decimal
	SignupDate      *time.Time
}

// Row renders the record in dim_loyalty_users column order
func (u UserDimension) Row() []string {
	return []string{
		u.UserID, u.UserName, u.PhoneNumber, u.PhoneNormalized, u.Email,
		u.TierID, u.TierName, u.ReferralCode,
		u.RemainingCoins.StringFixed(2), u.TotalEarned.StringFixed(2), u.TotalUsed.StringFixed(2),
		utils.FormatWarehouseTime(u.SignupDate),
	}
}

// WalletTransactionFact is a row of fact_wallet_transactions
type WalletTransactionFact struct {
	TransactionID string
	UserID        string
	Type          string
	Title         string
	Amount        decimal.Decimal
	Reason        string
	Status        string
	CreatedAt     *time.Time
}

// Row renders the record in fact_wallet_transactions column order
func (t WalletTransactionFact) Row() []string {
	return []string{
		t.TransactionID, t.UserID, t.Type, t.Title,
		t.Amount.StringFixed(2), t.Reason, t.Status,
		utils.FormatWarehouseTime(t.CreatedAt),
	}
}

// ReferralFact is a row of fact_referrals. ReferredUserID is nil until the
// referred phone number converts to a signed-up user; that is valid data,
// not an error.
type ReferralFact struct {
	ReferralID              string
	ReferrerUserID          string
	ReferredPhone           string
	ReferredPhoneNormalized string
	ReferralCode            string
	BonusAmount             decimal.Decimal
	Status                  string
	CreatedAt               *time.Time
	ReferrerName            string
	ReferredName            string
	ReferredUserID          *string
}

// Row renders the record in fact_referrals column order
func (r ReferralFact) Row() []string {
	referredID := ""
	if r.ReferredUserID != nil {
		referredID = *r.ReferredUserID
	}
	return []string{
		r.ReferralID, r.ReferrerUserID, r.ReferredPhone, r.ReferredPhoneNormalized,
		r.ReferralCode, r.BonusAmount.StringFixed(2), r.Status,
		utils.FormatWarehouseTime(r.CreatedAt),
		r.ReferrerName, r.ReferredName, referredID,
	}
}

// LeadFact is a row of fact_leads
type LeadFact struct {
	LeadID          string
	GeneratorUserID string
	LeadName        string
	LeadPhone       string
	OccasionName    string
	LeadStage       string
	EstimatedValue  decimal.Decimal
	CreatedAt       *time.Time
	GeneratorName   string
}

// Row renders the record in fact_leads column order
func (l LeadFact) Row() []string {
	return []string{
		l.LeadID, l.GeneratorUserID, l.LeadName, l.LeadPhone, l.OccasionName,
		l.LeadStage, l.EstimatedValue.StringFixed(2),
		utils.FormatWarehouseTime(l.CreatedAt), l.GeneratorName,
	}
}

// WithdrawalFact is a row of fact_withdrawals. ProcessedAt stays nil while
// the withdrawal is still pending.
type WithdrawalFact struct {
	WithdrawalID    string
	UserID          string
	RequestedAmount decimal.Decimal
	ApprovedAmount  *decimal.Decimal
	Status          string
	BankID          string
	UPIID           string
	CreatedAt       *time.Time
	ProcessedAt     *time.Time
	UserName        string
}

// Row renders the record in fact_withdrawals column order
func (w WithdrawalFact) Row() []string {
	approved := ""
	if w.ApprovedAmount != nil {
		approved = w.ApprovedAmount.StringFixed(2)
	}
	return []string{
		w.WithdrawalID, w.UserID, w.RequestedAmount.StringFixed(2), approved, w.Status,
		w.BankID, w.UPIID,
		utils.FormatWarehouseTime(w.CreatedAt), utils.FormatWarehouseTime(w.ProcessedAt),
		w.UserName,
	}
}
