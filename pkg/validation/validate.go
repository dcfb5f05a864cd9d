// Package validation implements identifier character-set checks for plain
// ISO-9660 and Joliet directory identifiers.
package validation

import (
	"regexp"
	"strings"

	"github.com/bgrewell/iso-kit/pkg/consts"
)

// ValidISO9660FileIdentifier reports whether identifier only uses
// characters permitted in a file identifier (d-characters plus the
// separators '.' and ';').
func ValidISO9660FileIdentifier(identifier string) bool {
	return validateIdentifierRune(identifier)
}

// ValidISO9660DirIdentifier reports whether identifier only uses
// characters permitted in a directory identifier. The single-byte special
// identifiers 0x00 ("." root) and 0x01 (".." parent) are always valid.
func ValidISO9660DirIdentifier(identifier string) bool {
	if len(identifier) == 1 && (identifier[0] == 0x00 || identifier[0] == 0x01) {
		return true
	}
	return validateIdentifierRune(identifier)
}

// validateIdentifierRune checks each rune in the identifier against the
// allowed d-character / separator set.
func validateIdentifierRune(identifier string) bool {
	allowed := consts.D_CHARACTERS + consts.D1_CHARACTERS + consts.ISO9660_SEPARATOR_1 + consts.ISO9660_SEPARATOR_2
	for _, r := range identifier {
		if !strings.ContainsRune(allowed, r) {
			return false
		}
	}
	return true
}

// Precompiled regular expression equivalent of validateIdentifierRune for
// non-empty identifiers (the regex rejects "", the rune scan accepts it),
// kept alongside it so the two can be benchmarked against each other.
var allowedRegexp = regexp.MustCompile(`^[` + regexp.QuoteMeta(consts.D_CHARACTERS+consts.D1_CHARACTERS+consts.ISO9660_SEPARATOR_1+consts.ISO9660_SEPARATOR_2) + `]+$`)

func validateIdentifierRegex(id string) bool {
	return allowedRegexp.MatchString(id)
}

// jolietDisallowed are the characters the Joliet spec forbids in a long
// filename even though UCS-2 can represent them: control characters plus
// '*', '/', ':', ';', '?', '\\'.
const jolietDisallowed = "*/:;?\\"

// ValidJolietCharacters reports whether a decoded Joliet identifier avoids
// control characters and the disallowed punctuation set.
func ValidJolietCharacters(identifier string) bool {
	for _, r := range identifier {
		if r < 0x20 {
			return false
		}
		if strings.ContainsRune(jolietDisallowed, r) {
			return false
		}
	}
	return true
}
