// Package validate holds the shape checks run before any network call.
// Every function is pure and total: it never panics and never does I/O.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ethos-finder/ethos/internal/provider"
)

var (
	handleRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,30}$`)
	labelRe  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	tldRe    = regexp.MustCompile(`^[a-zA-Z]{2,63}$`)
)

// minPhoneDigits is the shortest number worth parsing.
const minPhoneDigits = 7

// Email reports whether s looks like local@domain.tld: a non-empty local part
// without '@' or whitespace, and a domain accepted by Domain.
func Email(s string) bool {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	local := s[:at]
	if strings.ContainsRune(local, '@') || strings.IndexFunc(local, unicode.IsSpace) >= 0 {
		return false
	}
	return Domain(s[at+1:])
}

// StripPhone removes the separators people type into phone numbers.
func StripPhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
}

// Phone reports whether s, once separators are removed, starts with '+' or a
// digit and carries at least seven digits.
func Phone(s string) bool {
	stripped := StripPhone(s)
	if stripped == "" {
		return false
	}
	first := stripped[0]
	if first != '+' && (first < '0' || first > '9') {
		return false
	}
	digits := 0
	for i := 0; i < len(stripped); i++ {
		if stripped[i] >= '0' && stripped[i] <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// NormalizeHandle drops a single leading '@'.
func NormalizeHandle(s string) string {
	return strings.TrimPrefix(s, "@")
}

// Handle reports whether s is 1-30 letters, digits, dots, underscores or
// hyphens after removing a leading '@'.
func Handle(s string) bool {
	return handleRe.MatchString(NormalizeHandle(s))
}

// Domain reports whether s is a dotted hostname with an alphabetic TLD.
func Domain(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels[:len(labels)-1] {
		if !labelRe.MatchString(l) {
			return false
		}
	}
	return tldRe.MatchString(labels[len(labels)-1])
}

// Query validates s for a search kind. Unknown kinds never validate.
func Query(kind provider.Kind, s string) bool {
	switch kind {
	case provider.KindEmail:
		return Email(s)
	case provider.KindPhone:
		return Phone(s)
	case provider.KindHandle:
		return Handle(s)
	case provider.KindDomain:
		return Domain(s)
	}
	return false
}
