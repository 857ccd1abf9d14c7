package loyalty

import (
	"time"

	"github.com/shopspring/decimal"

	"loyaltyetl/pkg/utils"
)

// Transforms are pure: they read source records and produce warehouse
// records, skipping (and counting) records that lack required identifiers.
// A skipped record is never fatal to its table.

// UserIndex resolves user ids and normalized phone numbers to the user
// dimension, for enriching fact records.
type UserIndex struct {
	byID    map[string]UserDimension
	byPhone map[string]string
}

// NewUserIndex builds an index over transformed user dimension rows.
// Normalized phone numbers are not assumed unique; when several users share
// one, the smallest user id wins so reruns resolve deterministically.
func NewUserIndex(dims []UserDimension) *UserIndex {
	idx := &UserIndex{
		byID:    make(map[string]UserDimension, len(dims)),
		byPhone: make(map[string]string, len(dims)),
	}
	for _, dim := range dims {
		idx.byID[dim.UserID] = dim
		if dim.PhoneNormalized == "" {
			continue
		}
		if existing, ok := idx.byPhone[dim.PhoneNormalized]; !ok || dim.UserID < existing {
			idx.byPhone[dim.PhoneNormalized] = dim.UserID
		}
	}
	return idx
}

// ByID returns the user dimension for a user id
func (idx *UserIndex) ByID(userID string) (UserDimension, bool) {
	dim, ok := idx.byID[userID]
	return dim, ok
}

// ByNormalizedPhone returns the user dimension matching a normalized phone
func (idx *UserIndex) ByNormalizedPhone(phone string) (UserDimension, bool) {
	userID, ok := idx.byPhone[phone]
	if !ok {
		return UserDimension{}, false
	}
	return idx.byID[userID], true
}

// BuildUserDimensions joins users with their wallets and resolves tier names
// through the catalog. Users without a wallet carry zero balances. Returns
// the dimension rows and the count of skipped source records.
func BuildUserDimensions(users []UserRecord, wallets []WalletRecord, tiers *TierCatalog) ([]UserDimension, int) {
	walletsByUser := make(map[string]WalletRecord, len(wallets))
	for _, w := range wallets {
		if w.UserID == "" {
			continue
		}
		walletsByUser[w.UserID] = w
	}

	dims := make([]UserDimension, 0, len(users))
	skipped := 0
	for _, u := range users {
		if u.UserID == "" {
			skipped++
			continue
		}
		wallet := walletsByUser[u.UserID]
		dims = append(dims, UserDimension{
			UserID:          u.UserID,
			UserName:        u.UserName,
			PhoneNumber:     u.PhoneNumber,
			PhoneNormalized: NormalizePhone(u.PhoneNumber),
			Email:           u.EmailID,
			TierID:          u.TierID,
			TierName:        tiers.Name(u.TierID),
			ReferralCode:    u.ReferralCode,
			RemainingCoins:  wallet.RemainingAmount.Decimal,
			TotalEarned:     wallet.TotalAmount.Decimal,
			TotalUsed:       wallet.UsedAmount.Decimal,
			SignupDate:      timePtr(u.CreatedTime),
		})
	}
	return dims, skipped
}

// TransformTransactions maps ledger rows to fact records. The type tag is
// derived from the sign convention: non-negative amounts are credits,
// negative amounts are debits. The signed amount is carried through
// unchanged.
func TransformTransactions(records []WalletTransactionRecord) ([]WalletTransactionFact, int) {
	facts := make([]WalletTransactionFact, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.TransactionID == "" || rec.UserID == "" {
			skipped++
			continue
		}
		txType := TransactionTypeCredit
		if rec.Amount.IsNegative() {
			txType = TransactionTypeDebit
		}
		facts = append(facts, WalletTransactionFact{
			TransactionID: rec.TransactionID,
			UserID:        rec.UserID,
			Type:          txType,
			Title:         rec.Title,
			Amount:        rec.Amount.Decimal,
			Reason:        rec.Reason,
			Status:        rec.Status,
			CreatedAt:     timePtr(rec.CreatedTime),
		})
	}
	return facts, skipped
}

// TransformReferrals maps referral rows to fact records, enriching them with
// the referrer's name and, when the referred phone has converted to a user,
// the referred user's id and name. An unconverted referral keeps a nil
// referred user id; that is expected data.
func TransformReferrals(records []TierReferralRecord, users *UserIndex) ([]ReferralFact, int) {
	facts := make([]ReferralFact, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.TierReferralID == "" || rec.UserID == "" {
			skipped++
			continue
		}

		status := ReferralStatusPending
		if rec.AppliedCode != "" {
			status = ReferralStatusApplied
		}

		fact := ReferralFact{
			ReferralID:              rec.TierReferralID,
			ReferrerUserID:          rec.UserID,
			ReferredPhone:           rec.SentTo,
			ReferredPhoneNormalized: NormalizePhone(rec.SentTo),
			ReferralCode:            rec.AppliedCode,
			BonusAmount:             rec.BonusAmount.Decimal,
			Status:                  status,
			CreatedAt:               timePtr(rec.CreatedTime),
		}

		if referrer, ok := users.ByID(rec.UserID); ok {
			fact.ReferrerName = referrer.UserName
		}
		if referred, ok := users.ByNormalizedPhone(fact.ReferredPhoneNormalized); ok {
			id := referred.UserID
			fact.ReferredUserID = &id
			fact.ReferredName = referred.UserName
		}

		facts = append(facts, fact)
	}
	return facts, skipped
}

// TransformLeads maps lead rows to fact records enriched with the
// generator's name.
func TransformLeads(records []LeadRecord, users *UserIndex) ([]LeadFact, int) {
	facts := make([]LeadFact, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.LeadID == "" || rec.UserID == "" {
			skipped++
			continue
		}
		fact := LeadFact{
			LeadID:          rec.LeadID,
			GeneratorUserID: rec.UserID,
			LeadName:        rec.LeadName,
			LeadPhone:       rec.LeadPhoneNumber,
			OccasionName:    rec.OccasionName,
			LeadStage:       rec.LeadStage,
			EstimatedValue:  rec.EstimatedValue.Decimal,
			CreatedAt:       timePtr(rec.CreatedTime),
		}
		if generator, ok := users.ByID(rec.UserID); ok {
			fact.GeneratorName = generator.UserName
		}
		facts = append(facts, fact)
	}
	return facts, skipped
}

// TransformWithdrawals maps withdrawal rows to fact records. ProcessedAt is
// nil while the withdrawal is still pending; the source's updated_time moves
// on unrelated writes and only counts once the request is resolved.
func TransformWithdrawals(records []WithdrawalRecord, users *UserIndex) ([]WithdrawalFact, int) {
	facts := make([]WithdrawalFact, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.RequestedID == "" || rec.UserID == "" {
			skipped++
			continue
		}

		var approved *decimal.Decimal
		if rec.ApprovedAmount != nil {
			d := rec.ApprovedAmount.Decimal
			approved = &d
		}

		var processedAt *time.Time
		if rec.Status != WithdrawalStatusPending {
			processedAt = timePtr(rec.UpdatedTime)
		}

		fact := WithdrawalFact{
			WithdrawalID:    rec.RequestedID,
			UserID:          rec.UserID,
			RequestedAmount: rec.RequestedAmount.Decimal,
			ApprovedAmount:  approved,
			Status:          rec.Status,
			BankID:          rec.BankID,
			UPIID:           rec.UPIID,
			CreatedAt:       timePtr(rec.CreatedTime),
			ProcessedAt:     processedAt,
		}
		if user, ok := users.ByID(rec.UserID); ok {
			fact.UserName = user.UserName
		}
		facts = append(facts, fact)
	}
	return facts, skipped
}

func timePtr(v interface{}) *time.Time {
	t, ok := utils.ParseFlexibleTime(v)
	if !ok {
		return nil
	}
	return &t
}
