package enums

import "fmt"

// LedgerReason tags why a credit balance changed.
type LedgerReason string

const (
	LedgerReasonPurchase LedgerReason = "purchase"
	LedgerReasonUsage    LedgerReason = "usage"
	LedgerReasonGrant    LedgerReason = "grant"
	LedgerReasonRefund   LedgerReason = "refund"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonPurchase,
	LedgerReasonUsage,
	LedgerReasonGrant,
	LedgerReasonRefund,
}

// String implements fmt.Stringer.
func (r LedgerReason) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsCredit reports whether the reason increases the balance.
func (r LedgerReason) IsCredit() bool {
	return r == LedgerReasonPurchase || r == LedgerReasonGrant || r == LedgerReasonRefund
}

// ParseLedgerReason converts raw input into a LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}
