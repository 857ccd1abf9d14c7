package loyalty

// Source record types for the seven loyalty tables. Attribute names follow
// the source system's schema; the pipeline never writes these tables back.
// Each type carries a projection list so the extractor retrieves only the
// attributes the transforms consume.

// UserRecord is a row of the user source table
type UserRecord struct {
	UserID       string      `dynamodbav:"userId"`
	UserName     string      `dynamodbav:"userName"`
	PhoneNumber  string      `dynamodbav:"phoneNumber"`
	EmailID      string      `dynamodbav:"emailId"`
	TierID       string      `dynamodbav:"tierId"`
	ReferralCode string      `dynamodbav:"referralCode"`
	CreatedTime  interface{} `dynamodbav:"created_time"`
}

// UserProjection lists the user attributes the pipeline needs
var UserProjection = []string{
	"userId", "userName", "phoneNumber", "emailId", "tierId", "referralCode", "created_time",
}

// WalletRecord is a row of the wallet source table
type WalletRecord struct {
	WalletID        string `dynamodbav:"walletId"`
	UserID          string `dynamodbav:"userId"`
	RemainingAmount Amount `dynamodbav:"remainingAmount"`
	TotalAmount     Amount `dynamodbav:"totalAmount"`
	UsedAmount      Amount `dynamodbav:"usedAmount"`
}

// WalletProjection lists the wallet attributes the pipeline needs
var WalletProjection = []string{
	"walletId", "userId", "remainingAmount", "totalAmount", "usedAmount",
}

// WalletTransactionRecord is a row of the wallet transaction ledger.
// Transactions are append-only; amount and sign never change after creation.
type WalletTransactionRecord struct {
	TransactionID string      `dynamodbav:"transactionId"`
	UserID        string      `dynamodbav:"userId"`
	Title         string      `dynamodbav:"title"`
	Amount        Amount      `dynamodbav:"amount"`
	Reason        string      `dynamodbav:"reason"`
	Status        string      `dynamodbav:"status"`
	CreatedTime   interface{} `dynamodbav:"created_time"`
}

// WalletTransactionProjection lists the transaction attributes the pipeline needs
var WalletTransactionProjection = []string{
	"transactionId", "userId", "title", "amount", "reason", "status", "created_time",
}

// TierReferralRecord is a row of the tier referral source table
type TierReferralRecord struct {
	TierReferralID string      `dynamodbav:"tierReferralId"`
	UserID         string      `dynamodbav:"userId"`
	SentTo         string      `dynamodbav:"sentTo"`
	AppliedCode    string      `dynamodbav:"appliedCode"`
	BonusAmount    Amount      `dynamodbav:"bonusAmount"`
	CreatedTime    interface{} `dynamodbav:"created_time"`
}

// TierReferralProjection lists the referral attributes the pipeline needs
var TierReferralProjection = []string{
	"tierReferralId", "userId", "sentTo", "appliedCode", "bonusAmount", "created_time",
}

// TierDetailRecord is a row of the tier details source table
type TierDetailRecord struct {
	TierID   string `dynamodbav:"tierId"`
	TierType string `dynamodbav:"tierType"`
}

// TierDetailProjection lists the tier attributes the pipeline needs
var TierDetailProjection = []string{"tierId", "tierType"}

// LeadRecord is a row of the lead source table
type LeadRecord struct {
	LeadID          string      `dynamodbav:"leadId"`
	UserID          string      `dynamodbav:"userId"`
	LeadName        string      `dynamodbav:"leadName"`
	LeadPhoneNumber string      `dynamodbav:"leadPhoneNumber"`
	OccasionName    string      `dynamodbav:"occasionName"`
	LeadStage       string      `dynamodbav:"leadStage"`
	EstimatedValue  Amount      `dynamodbav:"estimatedValue"`
	CreatedTime     interface{} `dynamodbav:"created_time"`
}

// LeadProjection lists the lead attributes the pipeline needs
var LeadProjection = []string{
	"leadId", "userId", "leadName", "leadPhoneNumber", "occasionName",
	"leadStage", "estimatedValue", "created_time",
}

// WithdrawalRecord is a row of the withdrawal source table
type WithdrawalRecord struct {
	RequestedID     string      `dynamodbav:"requestedId"`
	UserID          string      `dynamodbav:"userId"`
	RequestedAmount Amount      `dynamodbav:"requestedAmount"`
	ApprovedAmount  *Amount     `dynamodbav:"approvedAmount"`
	Status          string      `dynamodbav:"status"`
	BankID          string      `dynamodbav:"bankId"`
	UPIID           string      `dynamodbav:"upiId"`
	CreatedTime     interface{} `dynamodbav:"created_time"`
	UpdatedTime     interface{} `dynamodbav:"updated_time"`
}

// WithdrawalProjection lists the withdrawal attributes the pipeline needs
var WithdrawalProjection = []string{
	"requestedId", "userId", "requestedAmount", "approvedAmount", "status",
	"bankId", "upiId", "created_time", "updated_time",
}

// Withdrawal statuses as stored by the source system
const (
	WithdrawalStatusPending  = "Pending"
	WithdrawalStatusApproved = "Approved"
	WithdrawalStatusRejected = "Rejected"
)
