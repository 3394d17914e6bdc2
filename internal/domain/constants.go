package domain

// Roles a session profile can hold. Exactly one is active at a time and it
// only changes through an explicit profile action.
const (
	RoleConsumer = "CONSUMER"
	RoleMerchant = "MERCHANT"
	RoleAdmin    = "ADMIN"
)

// KYC verification levels, ordered. Progression is monotonic: a profile never
// moves back to a lower level.
const (
	KYCUnverified = "UNVERIFIED"
	KYCPending    = "PENDING"
	KYCVerifiedL1 = "VERIFIED_L1"
	KYCVerifiedL2 = "VERIFIED_L2"
	KYCVerifiedL3 = "VERIFIED_L3"
)

const (
	TxTypePayment  = "PAYMENT"
	TxTypeTopUp    = "TOP_UP"
	TxTypeTransfer = "TRANSFER"
	TxTypeReceive  = "RECEIVE"
	TxTypeWithdraw = "WITHDRAW"

	TxStatusSuccess = "SUCCESS"
	TxStatusPending = "PENDING"
	TxStatusFailed  = "FAILED"

	CategoryFood         = "FOOD"
	CategoryTransport    = "TRANSPORT"
	CategoryShopping     = "SHOPPING"
	CategoryUtilities    = "UTILITIES"
	CategorySubscription = "SUBSCRIPTION"
	CategoryOther        = "OTHER"

	// DefaultCurrency is the only currency the wallet deals in.
	DefaultCurrency = "NGN"
)

var kycOrder = map[string]int{
	KYCUnverified: 0,
	KYCPending:    1,
	KYCVerifiedL1: 2,
	KYCVerifiedL2: 3,
	KYCVerifiedL3: 4,
}

// ValidRole reports whether role is one of the known profile roles.
func ValidRole(role string) bool {
	switch role {
	case RoleConsumer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}

// ValidCategory reports whether category is a known transaction category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryUtilities, CategorySubscription, CategoryOther:
		return true
	}
	return false
}

// KYCAdvances reports whether moving from current to next respects the
// monotonic verification progression.
func KYCAdvances(current, next string) bool {
	c, ok := kycOrder[current]
	if !ok {
		return false
	}
	n, ok := kycOrder[next]
	if !ok {
		return false
	}
	return n > c
}

// CreditsBalance reports whether a transaction type increases the wallet
// balance. All other types are debits.
func CreditsBalance(txType string) bool {
	return txType == TxTypeTopUp || txType == TxTypeReceive
}
