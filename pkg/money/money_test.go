package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTax(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		rate     string
		want     string
	}{
		{"whole", "100", "16", "16"},
		{"half rounds up", "0.25", "10", "0.03"},
		{"below half rounds down", "0.24", "10", "0.02"},
		{"fractional rate", "199.99", "8.25", "16.50"},
		{"zero rate", "55.55", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tax(d(tt.subtotal), d(tt.rate))
			if !got.Equal(d(tt.want)) {
				t.Errorf("Tax(%s, %s) = %s, want %s", tt.subtotal, tt.rate, got, tt.want)
			}
		})
	}
}

func TestSumHasNoDrift(t *testing.T) {
	values := make([]decimal.Decimal, 0, 1000)
	for i := 0; i < 1000; i++ {
		values = append(values, d("0.10"))
	}
	if got := Sum(values...); !got.Equal(d("100")) {
		t.Errorf("Sum = %s, want 100", got)
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(d("19.99"), 3); !got.Equal(d("59.97")) {
		t.Errorf("LineTotal = %s, want 59.97", got)
	}
}
