package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "CUSTOMERS", b: "CUSTOMERS", want: 1.0},
		{name: "empty a", a: "", b: "CUSTOMERS", want: 0.0},
		{name: "empty b", a: "CUSTOMERS", b: "", want: 0.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "single insertion", a: "CUSTOMER", b: "CUSTOMERS", want: 1 - 1.0/9},
		{name: "completely different", a: "ABC", b: "XYZ", want: 0.0},
		{name: "single substitution", a: "ORDERS", b: "ORDERZ", want: 1 - 1.0/6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"CUSTOMER", "CUSTOMERS"},
		{"EMP", "EMPLOYEES"},
		{"ORDER_ITEMS", "ORDERS"},
	}
	for _, p := range pairs {
		assert.InDelta(t, ratio(p[0], p[1]), ratio(p[1], p[0]), 1e-9)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "equal", a: "kitten", b: "kitten", want: 0},
		{name: "classic", a: "kitten", b: "sitting", want: 3},
		{name: "insert only", a: "", b: "abc", want: 3},
		{name: "delete only", a: "abc", b: "", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein(tt.a, tt.b))
		})
	}
}
