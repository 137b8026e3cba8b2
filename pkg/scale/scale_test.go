package scale

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestHumanToBase(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     int64
	}{
		{"exact", "1.23456", 6, 1234560},
		{"truncates excess precision", "0.1234567", 6, 123456},
		{"never rounds up", "0.9999999", 6, 999999},
		{"zero decimals", "3.9", 0, 3},
		{"integer amount", "2", 4, 20000},
		{"eighteen decimals", "0.5", 18, 500000000000000000},
		{"zero", "0", 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HumanToBase(decimal.RequireFromString(tt.amount), tt.decimals)
			if err != nil {
				t.Fatalf("HumanToBase() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HumanToBase(%s, %d) = %d, want %d", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestPriceToBase(t *testing.T) {
	tests := []struct {
		name  string
		price string
		exp   int32
		want  int64
	}{
		{"exact", "100.005", 6, 100005000},
		{"half rounds up", "1.0000005", 6, 1000001},
		{"below half rounds down", "1.0000004", 6, 1000000},
		{"above half rounds up", "1.0000006", 6, 1000001},
		{"two decimals", "2500.555", 2, 250056},
		{"zero exponent", "10.5", 0, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceToBase(decimal.RequireFromString(tt.price), tt.exp)
			if err != nil {
				t.Fatalf("PriceToBase() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PriceToBase(%s, %d) = %d, want %d", tt.price, tt.exp, got, tt.want)
			}
		})
	}
}

// Scaling then unscaling recovers the input at the target precision:
// truncated for quantities, half-up for prices.
func TestRoundTrip(t *testing.T) {
	amounts := []string{"0", "1", "0.1", "1.23456789", "42.000001", "999.9999995", "0.00000001", "123456.5"}

	for _, s := range amounts {
		for decimals := int32(0); decimals <= 9; decimals++ {
			amount := decimal.RequireFromString(s)

			units, err := HumanToBase(amount, decimals)
			if err != nil {
				t.Fatalf("HumanToBase(%s, %d) error = %v", s, decimals, err)
			}
			if got, want := BaseToHuman(units, decimals), amount.Truncate(decimals); !got.Equal(want) {
				t.Errorf("qty %s @%d: round trip = %s, want %s", s, decimals, got, want)
			}

			units, err = PriceToBase(amount, decimals)
			if err != nil {
				t.Fatalf("PriceToBase(%s, %d) error = %v", s, decimals, err)
			}
			if got, want := BaseToHuman(units, decimals), amount.Round(decimals); !got.Equal(want) {
				t.Errorf("price %s @%d: round trip = %s, want %s", s, decimals, got, want)
			}
		}
	}
}

func TestScaleErrors(t *testing.T) {
	if _, err := HumanToBase(decimal.RequireFromString("-1"), 6); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative amount: err = %v, want %v", err, ErrNegativeAmount)
	}
	if _, err := PriceToBase(decimal.RequireFromString("1"), -2); !errors.Is(err, ErrNegativeDecimals) {
		t.Errorf("negative exponent: err = %v, want %v", err, ErrNegativeDecimals)
	}
	if _, err := HumanToBase(decimal.RequireFromString("10"), 18); !errors.Is(err, ErrOverflow) {
		t.Errorf("overflow: err = %v, want %v", err, ErrOverflow)
	}
}

func TestHugeScaleRejectedCheaply(t *testing.T) {
	price := decimal.RequireFromString("100")
	if _, err := PriceToBase(price, 20000000); !errors.Is(err, ErrTooManyDecimals) {
		t.Errorf("PriceToBase(100, 20000000) error = %v, want %v", err, ErrTooManyDecimals)
	}
	if _, err := HumanToBase(price, MaxDecimals+1); !errors.Is(err, ErrTooManyDecimals) {
		t.Errorf("HumanToBase(100, %d) error = %v, want %v", MaxDecimals+1, err, ErrTooManyDecimals)
	}

	_, err := PriceToBase(decimal.RequireFromString("1e300"), 6)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("PriceToBase(1e300, 6) error = %v, want %v", err, ErrOverflow)
	}
	if len(err.Error()) > 64 {
		t.Errorf("overflow error should not echo the value, got %d bytes", len(err.Error()))
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("0.015")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !d.Equal(decimal.New(15, -3)) {
		t.Errorf("Parse(0.015) = %s", d)
	}

	if _, err := Parse("abc"); err == nil {
		t.Error("Parse(abc) should fail")
	}
}
