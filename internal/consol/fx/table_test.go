package fx

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToHKDMultipliesByRate(t *testing.T) {
	table := DefaultTable()
	cases := []struct {
		market Market
		local  string
		want   string
	}{
		{MarketChina, "1950000", "2106000"},
		{MarketUSA, "1420000", "11104400"},
		{MarketHK, "370000", "370000"},
		{MarketTaiwan, "260000", "65000"},
	}
	for _, tc := range cases {
		got, err := table.ToHKD(tc.market, decimal.RequireFromString(tc.local))
		if err != nil {
			t.Fatalf("ToHKD(%s) error: %v", tc.market, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ToHKD(%s) = %s want %s", tc.market, got, tc.want)
		}
	}
}

func TestFromHKDRoundsToCents(t *testing.T) {
	table := DefaultTable()
	got, err := table.FromHKD(MarketUSA, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("FromHKD error: %v", err)
	}
	if got.String() != "12.79" {
		t.Fatalf("expected 12.79 got %s", got)
	}
}

func TestRateMissingMarket(t *testing.T) {
	table := NewTable(map[Market]decimal.Decimal{MarketHK: decimal.NewFromInt(1)})
	_, err := table.ToHKD(MarketUSA, decimal.NewFromInt(10))
	var missing *MissingRateError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingRateError got %T", err)
	}
	if len(missing.Markets) != 1 || missing.Markets[0] != MarketUSA {
		t.Fatalf("unexpected markets %+v", missing.Markets)
	}
}

func TestRatesFollowColumnOrder(t *testing.T) {
	quotes := DefaultTable().Rates()
	if len(quotes) != 4 {
		t.Fatalf("expected 4 quotes got %d", len(quotes))
	}
	for i, m := range Markets {
		if quotes[i].Market != m {
			t.Fatalf("quote %d: expected %s got %s", i, m, quotes[i].Market)
		}
	}
	if quotes[1].Currency != "USD" {
		t.Fatalf("expected USD currency got %s", quotes[1].Currency)
	}
	if quotes[1].Name != "USA" || quotes[2].Name != "Hong Kong" {
		t.Fatalf("unexpected market names %q, %q", quotes[1].Name, quotes[2].Name)
	}
}

func TestValidateTable(t *testing.T) {
	if err := DefaultTable().Validate(Markets); err != nil {
		t.Fatalf("default table should validate: %v", err)
	}

	partial := NewTable(map[Market]decimal.Decimal{MarketHK: decimal.NewFromInt(1)})
	var missing *MissingRateError
	if err := partial.Validate(Markets); !errors.As(err, &missing) {
		t.Fatalf("expected MissingRateError got %v", err)
	} else if len(missing.Markets) != 3 {
		t.Fatalf("expected 3 missing markets got %d", len(missing.Markets))
	}

	negative := NewTable(map[Market]decimal.Decimal{MarketUSA: decimal.NewFromInt(-1)})
	if err := negative.Validate([]Market{MarketUSA}); err == nil {
		t.Fatalf("expected error for negative rate")
	}

	offParity := NewTable(map[Market]decimal.Decimal{MarketHK: decimal.RequireFromString("1.01")})
	if err := offParity.Validate([]Market{MarketHK}); err == nil {
		t.Fatalf("expected error when HKD is not at parity")
	}
}

func TestParseMarket(t *testing.T) {
	cases := map[string]Market{
		"china":          MarketChina,
		"Hong Kong":      MarketHK,
		" USD ":          MarketUSA,
		"TWD":            MarketTaiwan,
		"Mainland China": MarketChina,
	}
	for raw, want := range cases {
		got, err := ParseMarket(raw)
		if err != nil {
			t.Fatalf("ParseMarket(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseMarket(%q) = %s want %s", raw, got, want)
		}
	}
	if _, err := ParseMarket("japan"); err == nil {
		t.Fatalf("expected error for unknown market")
	}
	if _, err := ParseMarket(""); err == nil {
		t.Fatalf("expected error for empty market")
	}
}
