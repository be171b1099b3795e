package definition

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the canonical form of a service, alias or parameter
// identifier: Unicode NFC followed by lower-casing.
//
// Two identifiers that differ only in case or composition address the same
// entry.
func NormalizeID(id string) string {
	// A Caser keeps state and is not safe for concurrent use.
	return cases.Lower(language.Und).String(norm.NFC.String(id))
}
