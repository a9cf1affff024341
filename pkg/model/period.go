package model

import "regexp"

var periodRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidPeriod reports whether s is a YYYY-MM billing period.
func ValidPeriod(s string) bool { return periodRe.MatchString(s) }

// SplitPeriod breaks "YYYY-MM" into its year and month parts. The caller is
// expected to have validated the period first; malformed input yields empty
// strings.
func SplitPeriod(s string) (year, month string) {
	if !periodRe.MatchString(s) {
		return "", ""
	}
	return s[:4], s[5:]
}
