package referral

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"

	LevelDirect   = 1
	LevelIndirect = 2
)

const (
	ReasonApplied       = "applied"
	ReasonNoPendingCode = "no_pending_code"
	ReasonUnknownCode   = "unknown_code"
	ReasonReplayed      = "replayed"
)

// Transaction is one commission entry in the global referral_transactions
// ledger. Entries are never modified after they are appended.
type Transaction struct {
	ID             string          `json:"id"`
	ReferrerID     string          `json:"referrerId"`
	ReferredUserID string          `json:"referredUserId"`
	PlanPrice      decimal.Decimal `json:"planPrice"`
	Commission     decimal.Decimal `json:"commission"`
	Level          int             `json:"level"`
	Date           time.Time       `json:"date"`
	Status         string          `json:"status"`
}

// Stats is the per-user aggregate kept under referral_stats_<userId>. It is
// updated incrementally and may drift from the ledger; RebuildStats derives
// it again from the transactions.
type Stats struct {
	TotalReferrals  int             `json:"totalReferrals"`
	TotalEarnings   decimal.Decimal `json:"totalEarnings"`
	PendingRewards  decimal.Decimal `json:"pendingRewards"`
	Level1Referrals int             `json:"level1Referrals"`
	Level2Referrals int             `json:"level2Referrals"`
}

type Purchase struct {
	// EventID identifies the purchase for replay protection; empty disables it.
	EventID   string
	UserID    string
	PlanPrice decimal.Decimal
}

type Result struct {
	Applied      bool
	Reason       string
	Transactions []Transaction
}

// CodeCheck describes the referrer behind a code entered at signup.
type CodeCheck struct {
	ReferrerID   string
	ReferrerName string
	ReferralCode string
	Discount     decimal.Decimal
}
