package engine

import "strings"

// NormalizeLicense uppercases a license identifier and strips everything
// outside [A-Z0-9], so "mh-01 ab/1234" and "MH01AB1234" compare equal.
func NormalizeLicense(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchesLicense reconciles a registered permit license against an OCR-read
// license string. After normalization the two match on equality or when
// either is a substring of the other, which absorbs OCR truncation and stray
// characters at the ends. Deliberately permissive: a false positive is a
// permit surfaced for an officer to dismiss, a false negative is a permit
// silently missed.
func MatchesLicense(permitLicense, ocrLicense string) bool {
	a := NormalizeLicense(permitLicense)
	b := NormalizeLicense(ocrLicense)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
