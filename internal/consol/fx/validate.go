package fx

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Validate ensures every required market has a positive rate and HKD is at parity.
func (t *Table) Validate(required []Market) error {
	if t == nil {
		return fmt.Errorf("fx: table required")
	}
	missing := make([]Market, 0)
	for _, m := range required {
		rate, ok := t.rates[m]
		if !ok {
			missing = append(missing, m)
			continue
		}
		if !rate.IsPositive() {
			return fmt.Errorf("fx: rate for %s must be positive, got %s", m, rate)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return &MissingRateError{Markets: missing}
	}
	for m, rate := range t.rates {
		if !m.Valid() {
			return fmt.Errorf("fx: unknown market %q in rate table", m)
		}
		if m.Currency() == ReportingCurrency && !rate.Equal(one) {
			return fmt.Errorf("fx: %s must convert at parity, got %s", m, rate)
		}
	}
	return nil
}
