package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalise(t *testing.T) {
	assert.Equal(t, "Total debt and finance leases $ 2,456", normalise("  Total\tdebt and\n\nfinance   leases\r\n$ 2,456 \f"))
	assert.Equal(t, "", normalise(" \n\t "))
}

func TestTwoValuesAfterLabel(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantFirst  float64
		wantSecond float64
	}{
		{"grouped thousands", "Total debt and finance leases $2,456 $5,757", true, 2456, 5757},
		{"label split across lines", "Total debt\nand finance\n  leases\n$ 2,456\n$ 5,757", true, 2456, 5757},
		{"case insensitive", "TOTAL DEBT AND FINANCE LEASES 2,456 5,757", true, 2456, 5757},
		{"plain digits", "Total debt and finance leases 456 5757 9", true, 456, 5757},
		{"skips implausible", "Total debt and finance leases $ 12 $ 2,456 $ 99,999 $ 5,757", true, 2456, 5757},
		{"band edges included", "Total debt and finance leases 100 20,000", true, 100, 20000},
		{"out of band only", "Total debt and finance leases $50 $99999", false, 0, 0},
		{"one plausible value", "Total debt and finance leases $ 2,456 $ 7", false, 0, 0},
		{"label absent", "Total debt 2,456 5,757", false, 0, 0},
		{"numbers before label ignored", "2,456 5,757 Total debt and finance leases", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second, ok := twoValuesAfterLabel(tt.text, totalDebtLabelRe, DefaultWindow)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantSecond, second)
		})
	}
}

func TestValuesAfterLabel_Window(t *testing.T) {
	padding := "x"
	for len(padding) < 30 {
		padding += "x"
	}
	text := "Total debt and finance leases " + padding + " 2,456 5,757"

	_, _, ok := twoValuesAfterLabel(text, totalDebtLabelRe, 20)
	assert.False(t, ok, "figures beyond the window are ignored")

	first, second, ok := twoValuesAfterLabel(text, totalDebtLabelRe, 60)
	assert.True(t, ok)
	assert.Equal(t, 2456.0, first)
	assert.Equal(t, 5757.0, second)
}

func TestValuesAfterLabel_WindowCountsCharacters(t *testing.T) {
	// The window is measured in characters, not bytes.
	text := "Current portion of debt and finance leases ééééééééé 2,114"

	_, ok := oneValueAfterLabel(text, currentPortionLabelRe, 12)
	assert.False(t, ok)

	v, ok := oneValueAfterLabel(text, currentPortionLabelRe, 17)
	assert.True(t, ok)
	assert.Equal(t, 2114.0, v)
}

func TestOneValueAfterLabel_VIE(t *testing.T) {
	text := "VIEs Current portion of debt and finance leases 2,114 Debt and finance leases, net of current portion 1,834"

	cur, ok := oneValueAfterLabel(text, currentPortionLabelRe, DefaultWindow)
	assert.True(t, ok)
	assert.Equal(t, 2114.0, cur)

	long, ok := oneValueAfterLabel(text, netOfCurrentLabelRe, DefaultWindow)
	assert.True(t, ok)
	assert.Equal(t, 1834.0, long)
}

func TestNetOfCurrentLabel_Variants(t *testing.T) {
	tests := []string{
		"Debt and finance leases, net of current portion 1,834",
		"Debt and finance leases net of the current portion 1,834",
		"... net of current portion 1,834",
	}
	for _, text := range tests {
		v, ok := oneValueAfterLabel(text, netOfCurrentLabelRe, DefaultWindow)
		assert.True(t, ok, text)
		assert.Equal(t, 1834.0, v, text)
	}
}

func TestRunePrefix(t *testing.T) {
	assert.Equal(t, "", runePrefix("abc", 0))
	assert.Equal(t, "ab", runePrefix("abc", 2))
	assert.Equal(t, "abc", runePrefix("abc", 10))
	assert.Equal(t, "éé", runePrefix("ééé", 2))
}
