package enums

import (
	"fmt"
	"time"
)

// PlanInterval is the billing cadence of a subscription plan.
type PlanInterval string

const (
	PlanIntervalMonthly PlanInterval = "monthly"
	PlanIntervalYearly  PlanInterval = "yearly"
)

var validPlanIntervals = []PlanInterval{
	PlanIntervalMonthly,
	PlanIntervalYearly,
}

// String implements fmt.Stringer.
func (i PlanInterval) String() string {
	return string(i)
}

// IsValid reports whether the value is known.
func (i PlanInterval) IsValid() bool {
	for _, candidate := range validPlanIntervals {
		if candidate == i {
			return true
		}
	}
	return false
}

// Duration returns how long a paid period of this interval lasts.
func (i PlanInterval) Duration() time.Duration {
	if i == PlanIntervalYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// ParsePlanInterval converts raw input into a PlanInterval.
func ParsePlanInterval(value string) (PlanInterval, error) {
	for _, candidate := range validPlanIntervals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan interval %q", value)
}
