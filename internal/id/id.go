package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatPeriodKey returns a period key like "2024-02".
func FormatPeriodKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// PeriodKeyOf returns the key of the calendar month containing t.
func PeriodKeyOf(t time.Time) string {
	return FormatPeriodKey(t.Year(), t.Month())
}

// ParsePeriodKey parses "2024-02" into year and month.
func ParsePeriodKey(key string) (year int, month time.Month, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid period key format: %q", key)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in period key %q: %w", key, err)
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in period key %q: %w", key, err)
	}
	if m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("month out of range in period key %q", key)
	}

	return year, time.Month(m), nil
}

// PeriodRange returns the first and last day (both inclusive) of a period.
func PeriodRange(key string) (start, end time.Time, err error) {
	year, month, err := ParsePeriodKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end, nil
}

// FormatInvoiceNumber returns a document number like "FV/2024/02/007".
func FormatInvoiceNumber(prefix string, year int, month time.Month, seq int) string {
	return fmt.Sprintf("%s/%04d/%02d/%03d", prefix, year, int(month), seq)
}

// ParseInvoiceNumber parses "FV/2024/02/007" into its parts.
func ParseInvoiceNumber(number string) (prefix string, year int, month time.Month, seq int, err error) {
	parts := strings.Split(number, "/")
	if len(parts) != 4 {
		return "", 0, 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("invalid year in document number %q: %w", number, err)
	}

	m, err := strconv.Atoi(parts[2])
	if err != nil || m < 1 || m > 12 {
		return "", 0, 0, 0, fmt.Errorf("invalid month in document number %q", number)
	}

	seq, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}

	return parts[0], year, time.Month(m), seq, nil
}
