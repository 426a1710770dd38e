package cardmarket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	testCases := []struct {
		text     string
		expected float64
		ok       bool
	}{
		{text: "1.234,56 €", expected: 1234.56, ok: true},
		{text: "15,43 €", expected: 15.43, ok: true},
		{text: "0,25 €", expected: 0.25, ok: true},
		{text: "1,234.56 €", expected: 1234.56, ok: true},
		{text: "15,43\u00a0€", expected: 15.43, ok: true},
		{text: "From 3,50 € (incl. VAT)", expected: 3.5, ok: true},
		{text: "12.345.678,90 €", expected: 12345678.9, ok: true},
		{text: "15 €", ok: false},
		{text: "12,5 €", ok: false},
		{text: "15,43", ok: false},
		{text: "n/a", ok: false},
		{text: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			value, ok := ParseCurrency(tc.text)
			require.Equal(t, tc.ok, ok)
			require.InDelta(t, tc.expected, value, 0.0001)
		})
	}
}

func TestParseInt(t *testing.T) {
	n, ok := parseInt("1.234 articles")
	require.True(t, ok)
	require.Equal(t, 1234, n)

	n, ok = parseInt("Paid 7")
	require.True(t, ok)
	require.Equal(t, 7, n)

	_, ok = parseInt("none")
	require.False(t, ok)
}
