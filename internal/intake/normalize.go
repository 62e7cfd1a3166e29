// Package intake turns a verified lead submission into CRM records: it
// resolves the submission to exactly one company, upserts its contact, and
// creates a job with an attached note. Repeated submissions with the same
// identity converge on the same company.
package intake

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a value for matching: NFKC fold, trim, lowercase,
// collapse internal whitespace runs. Applied symmetrically to submitted and
// CRM-returned values before any comparison.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SplitName splits a full name into first and rest.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Unknown", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// maxClientNameLen is the CRM's company name field limit.
const maxClientNameLen = 250

// addrPrefixLen bounds the address portion of a generated client name.
const addrPrefixLen = 25

// UniqueClientName builds the company name "{name} - {short address}", with
// an optional collision suffix, bounded to the CRM's field-length limit.
func UniqueClientName(name, address, suffix string) string {
	base := strings.TrimSpace(name)
	if addr := strings.TrimSpace(address); addr != "" {
		base = base + " - " + strings.TrimSpace(truncateRunes(addr, addrPrefixLen))
	}
	if suffix != "" {
		base = base + " - " + suffix
	}
	return truncateRunes(base, maxClientNameLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
