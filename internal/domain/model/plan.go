package model

import "time"

// Plan identifies a purchasable access window. The catalog is fixed in code:
// prices and durations change by deployment, not at runtime.
type Plan string

const (
	PlanDay  Plan = "DAY"
	PlanWeek Plan = "WEEK"
)

// planDurations maps every plan to its access window.
var planDurations = map[Plan]time.Duration{
	PlanDay:  24 * time.Hour,
	PlanWeek: 7 * 24 * time.Hour,
}

// planPricesKopeck maps every plan to its price in kopecks (RUB minor units).
// Amounts are kept as integers to avoid float errors.
var planPricesKopeck = map[Plan]int64{
	PlanDay:  19900, // 199.00 RUB
	PlanWeek: 99000, // 990.00 RUB
}

// Currency is the only settlement currency supported.
const Currency = "RUB"

// ParsePlan validates a plan identifier coming from the API boundary.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(s)
	_, ok := planDurations[p]
	return p, ok
}

func (p Plan) Valid() bool {
	_, ok := planDurations[p]
	return ok
}

// Duration returns the access window the plan grants. Zero for unknown plans.
func (p Plan) Duration() time.Duration {
	return planDurations[p]
}

// PriceKopeck returns the plan price in RUB minor units. Zero for unknown plans.
func (p Plan) PriceKopeck() int64 {
	return planPricesKopeck[p]
}

// Plans lists the purchasable catalog in a stable order.
func Plans() []Plan {
	return []Plan{PlanDay, PlanWeek}
}
