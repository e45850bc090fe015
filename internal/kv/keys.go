package kv

const (
	KeyCustomers            = "customers-list"
	KeyCurrentUser          = "currentUser"
	KeyReferralTransactions = "referral_transactions"
	KeyReferredUsers        = "referred_users"
	KeyProcessedEvents      = "referral_processed_events"
	// KeySessionExpiry maps each issued session id to the time its slot lapses.
	KeySessionExpiry = "session_expiry"

	prefixRecords       = "customers-record-lists-"
	prefixReferralStats = "referral_stats_"
	prefixReferralCode  = "referral_code_"
	prefixSession       = KeyCurrentUser + "_"
)

func RecordsKey(userID string) string {
	return prefixRecords + userID
}

func ReferralStatsKey(userID string) string {
	return prefixReferralStats + userID
}

// ReferralCodeKey holds the code a user signed up with until their first
// plan purchase consumes it.
func ReferralCodeKey(userID string) string {
	return prefixReferralCode + userID
}

// SessionKey returns the holder key for a session. The empty session id maps
// to the single default holder.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return KeyCurrentUser
	}
	return prefixSession + sessionID
}
