package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTurkishDate(t *testing.T) {
	assert.Equal(t, "2025-09-15", ParseTurkishDate("15.09.2025"))
	assert.Equal(t, "2026-01-02", ParseTurkishDate(" 2.1.2026 "))
	assert.Equal(t, "", ParseTurkishDate("  "))
	assert.Equal(t, "2025-09-15", ParseTurkishDate("2025-09-15"), "already-ISO input passes through")
	assert.Equal(t, "15/09/2025", ParseTurkishDate("15/09/2025"), "unrecognized separators pass through")
}

func TestFormatTurkishDate(t *testing.T) {
	assert.Equal(t, "15.09.2025", FormatTurkishDate("2025-09-15"))
	assert.Equal(t, "10.02.2026", FormatTurkishDate("2026-02-10T09:30:00+03:00"))
	assert.Equal(t, "15.09.2025", FormatTurkishDate("15.09.2025"), "portal format passes through")
}

func TestIntOrZero(t *testing.T) {
	assert.Equal(t, 42, IntOrZero(" 42 "))
	assert.Equal(t, 0, IntOrZero(""))
	assert.Equal(t, 0, IntOrZero("kırk iki"))
}

func TestAmountOrZero(t *testing.T) {
	assert.InDelta(t, 1250.50, AmountOrZero("1.250,50"), 0.001)
	assert.InDelta(t, 99.0, AmountOrZero("99"), 0.001)
	assert.InDelta(t, 0.75, AmountOrZero("0,75"), 0.001)
	assert.InDelta(t, 0, AmountOrZero("yok"), 0.001)
}
