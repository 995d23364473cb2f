package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPeriodKey(t *testing.T) {
	assert.Equal(t, "2024-02", FormatPeriodKey(2024, time.February))
	assert.Equal(t, "2025-12", FormatPeriodKey(2025, time.December))
	assert.Equal(t, "2024-03", PeriodKeyOf(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
}

func TestParsePeriodKey(t *testing.T) {
	tests := []struct {
		key     string
		year    int
		month   time.Month
		wantErr bool
	}{
		{"2024-02", 2024, time.February, false},
		{"2025-12", 2025, time.December, false},
		{"2024-13", 0, 0, true},
		{"2024-00", 0, 0, true},
		{"2024-2", 0, 0, true},
		{"24-02", 0, 0, true},
		{"abcd-02", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		year, month, err := ParsePeriodKey(tt.key)
		if tt.wantErr {
			assert.Error(t, err, "ParsePeriodKey(%q)", tt.key)
			continue
		}
		require.NoError(t, err, "ParsePeriodKey(%q)", tt.key)
		assert.Equal(t, tt.year, year)
		assert.Equal(t, tt.month, month)
	}
}

func TestPeriodRange(t *testing.T) {
	start, end, err := PeriodRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)

	_, end, err = PeriodRange("2023-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), end)

	_, _, err = PeriodRange("bad")
	assert.Error(t, err)
}

func TestInvoiceNumberRoundTrip(t *testing.T) {
	n := FormatInvoiceNumber("FV", 2024, time.February, 7)
	assert.Equal(t, "FV/2024/02/007", n)

	prefix, year, month, seq, err := ParseInvoiceNumber(n)
	require.NoError(t, err)
	assert.Equal(t, "FV", prefix)
	assert.Equal(t, 2024, year)
	assert.Equal(t, time.February, month)
	assert.Equal(t, 7, seq)
}

func TestParseInvoiceNumber_Invalid(t *testing.T) {
	for _, n := range []string{"", "FV/2024/02", "FV/2024/13/001", "FV/x/02/001", "FV/2024/02/abc", "12/2024"} {
		_, _, _, _, err := ParseInvoiceNumber(n)
		assert.Error(t, err, "ParseInvoiceNumber(%q)", n)
	}
}
