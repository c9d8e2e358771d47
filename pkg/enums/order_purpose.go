package enums

import "fmt"

// OrderPurpose distinguishes what a payment order buys.
type OrderPurpose string

const (
	OrderPurposeCredits      OrderPurpose = "credits"
	OrderPurposeSubscription OrderPurpose = "subscription"
)

var validOrderPurposes = []OrderPurpose{
	OrderPurposeCredits,
	OrderPurposeSubscription,
}

// String implements fmt.Stringer.
func (p OrderPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p OrderPurpose) IsValid() bool {
	for _, candidate := range validOrderPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseOrderPurpose converts raw input into an OrderPurpose.
func ParseOrderPurpose(value string) (OrderPurpose, error) {
	for _, candidate := range validOrderPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order purpose %q", value)
}
