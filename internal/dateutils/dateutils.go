// Package dateutils provides date parsing, week bucketing and period-key
// derivation for statement and receipt dates.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts seen in statement tables and receipt field extraction.
const (
	DateLayoutStatement = "02/01/06"   // DD/MM/YY, the ledger file format
	DateLayoutReceipt   = "02-Jan-06"  // 05-Feb-25
	DateLayoutISO       = "2006-01-02" // receipt services sometimes return ISO
)

// CommonFormats is the list of formats tried when parsing a transaction
// date, most specific first.
var CommonFormats = []string{
	DateLayoutStatement,
	DateLayoutReceipt,
	DateLayoutISO,
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"2 January 2006",
	"02 Jan 2006",
	"Jan 02, 2006",
}

// ParseDate attempts to parse a transaction date using the common
// formats. Two-digit years resolve per time.Parse convention (69..99 →
// 19xx, otherwise 20xx).
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return regexp.MustCompile(`\s+`).ReplaceAllString(dateStr, " ")
}

// ToStatementFormat formats a date the way ledger files store it.
func ToStatementFormat(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutStatement)
}

// WeekOfMonth returns the 1-based week bucket of a date within its
// month: days 1-6 fall in week 1, days 7-13 in week 2, and so on.
func WeekOfMonth(date time.Time) int {
	return date.Day()/7 + 1
}

// PeriodKey derives the canonical ledger identifier for the accounting
// period containing date: lower-cased month name, a dash, and the
// four-digit year ("january-2025"). Every write and read path keys
// ledgers through this one function so statement uploads and receipt
// merges can never land in disconnected ledgers for the same month.
func PeriodKey(date time.Time) string {
	return fmt.Sprintf("%s-%04d", strings.ToLower(date.Month().String()), date.Year())
}

// PeriodKeyFromTokens derives the canonical period key from a
// caller-supplied month token and year token. The month token may be a
// full name, a three-letter abbreviation, or a 1..12 number, in any
// case. The year must be four digits.
func PeriodKeyFromTokens(month, year string) (string, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1000 || y > 9999 {
		return "", fmt.Errorf("invalid year token: %q", year)
	}

	m, err := parseMonthToken(month)
	if err != nil {
		return "", err
	}

	return PeriodKey(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)), nil
}

// MonthNameFromKey returns the display month name ("February") for a
// canonical period key, or an empty string if the key is malformed.
func MonthNameFromKey(key string) string {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return ""
	}
	m, err := parseMonthToken(parts[0])
	if err != nil {
		return ""
	}
	return m.String()
}

func parseMonthToken(token string) (time.Month, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, fmt.Errorf("empty month token")
	}

	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month number: %d", n)
		}
		return time.Month(n), nil
	}

	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if token == name || token == name[:3] {
			return m, nil
		}
	}

	return 0, fmt.Errorf("invalid month token: %q", token)
}
