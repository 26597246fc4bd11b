package categories

import (
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestSelectBand(t *testing.T) {
	bounded := []band{
		{id: 1, min: 0, max: fptr(5)},
		{id: 2, min: 5, max: fptr(25)},
		{id: 3, min: 25, max: nil},
	}

	tests := []struct {
		name     string
		bands    []band
		tcv      float64
		expected int // index into bands, -1 for none
	}{
		{"zero lands in first band", bounded, 0, 0},
		{"inside first band", bounded, 3, 0},
		{"lower bound is inclusive", bounded, 5, 1},
		{"upper bound is exclusive", bounded, 25, 2},
		{"unbounded band catches large values", bounded, 900, 2},
		{"no bands", nil, 10, -1},
		{
			"gap falls back to unbounded band",
			[]band{{id: 1, min: 10, max: fptr(20)}, {id: 2, min: 50, max: nil}},
			30, 1,
		},
		{
			"no unbounded fallback yields none",
			[]band{{id: 1, min: 10, max: fptr(20)}},
			30, -1,
		},
		{
			"equal mins break tie on highest id",
			[]band{{id: 1, min: 0, max: fptr(10)}, {id: 7, min: 0, max: fptr(10)}},
			4, 1,
		},
		{
			"largest qualifying min wins",
			[]band{{id: 1, min: 0, max: nil}, {id: 2, min: 10, max: fptr(40)}},
			15, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectBand(tt.bands, tt.tcv)
			if got != tt.expected {
				t.Errorf("selectBand() = %d, want %d", got, tt.expected)
			}
		})
	}
}
